package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CheckArtifactCompatibility reports whether an analysis artifact written by
// artifactVersion can be read by a build at currentVersion.
//
// Rules:
//   - "main" on either side skips the check
//   - an empty artifact version predates versioning and is accepted
//   - major versions must match
//   - an artifact from a newer minor version is rejected, older ones are read
//
// Examples:
//   - current 1.2.0, artifact 1.2.7 -> OK
//   - current 1.3.0, artifact 1.1.0 -> OK
//   - current 1.2.0, artifact 1.3.0 -> ERROR
//   - current 2.0.0, artifact 1.9.0 -> ERROR
func CheckArtifactCompatibility(currentVersion, artifactVersion string) error {
	currentVersion = strings.TrimPrefix(currentVersion, "v")
	artifactVersion = strings.TrimPrefix(artifactVersion, "v")

	if currentVersion == "main" || artifactVersion == "main" || artifactVersion == "" {
		return nil
	}

	current, err := semver.NewVersion(currentVersion)
	if err != nil {
		return fmt.Errorf("invalid current version '%s': %w", currentVersion, err)
	}

	artifact, err := semver.NewVersion(artifactVersion)
	if err != nil {
		return fmt.Errorf("invalid artifact version '%s': %w", artifactVersion, err)
	}

	if current.Major() != artifact.Major() {
		return fmt.Errorf("major version mismatch: running %d.x.x but artifact was written by %d.x.x",
			current.Major(), artifact.Major())
	}

	if artifact.Minor() > current.Minor() {
		return fmt.Errorf("artifact was written by a newer version %s, running %s", artifact, current)
	}

	return nil
}
