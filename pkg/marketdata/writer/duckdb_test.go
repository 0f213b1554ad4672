package writer

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-insight/internal/types"
	"github.com/stretchr/testify/suite"
)

type DuckDBWriterTestSuite struct {
	suite.Suite
	tempDir string
}

func TestDuckDBWriterSuite(t *testing.T) {
	suite.Run(t, new(DuckDBWriterTestSuite))
}

func (suite *DuckDBWriterTestSuite) SetupTest() {
	suite.tempDir = suite.T().TempDir()
}

func testBar(day int, closePrice float64) types.Bar {
	return types.Bar{
		Time:   time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC),
		Symbol: "IF2406.CFFEX",
		Open:   closePrice - 5,
		High:   closePrice + 10,
		Low:    closePrice - 10,
		Close:  closePrice,
		Volume: 1000,
	}
}

// countRows reads a parquet file back with a fresh DuckDB connection.
func (suite *DuckDBWriterTestSuite) countRows(path string, where string) int {
	db, err := sql.Open("duckdb", "")
	suite.Require().NoError(err)
	defer db.Close()

	var count int
	query := fmt.Sprintf("SELECT count(*) FROM read_parquet('%s') %s", path, where)
	suite.Require().NoError(db.QueryRow(query).Scan(&count))

	return count
}

func (suite *DuckDBWriterTestSuite) TestNewDuckDBWriter() {
	outputPath := filepath.Join(suite.tempDir, "test.parquet")
	writer := NewDuckDBWriter(outputPath, nil)

	duckWriter, ok := writer.(*DuckDBWriter)
	suite.Require().True(ok)
	suite.Equal(outputPath, duckWriter.GetOutputPath())
	suite.Nil(duckWriter.db)
	suite.Nil(duckWriter.tx)
	suite.Nil(duckWriter.stmt)
}

func (suite *DuckDBWriterTestSuite) TestWriteAndFinalize() {
	outputPath := filepath.Join(suite.tempDir, "bars.parquet")
	writer := NewDuckDBWriter(outputPath, nil)
	suite.Require().NoError(writer.Initialize())

	defer writer.Close()

	futures := testBar(4, 3510)
	futures.Amount = optional.Some(1.2e9)
	futures.OpenInterest = optional.Some(150000.0)
	futures.Settle = optional.Some(3508.4)

	suite.Require().NoError(writer.Write(testBar(5, 3520)))
	suite.Require().NoError(writer.Write(futures))
	suite.Require().NoError(writer.Write(testBar(6, 3530)))

	path, err := writer.Finalize()
	suite.Require().NoError(err)
	suite.Equal(outputPath, path)

	suite.Equal(3, suite.countRows(path, ""))
	suite.Equal(1, suite.countRows(path, "WHERE settle IS NOT NULL"))
	suite.Equal(2, suite.countRows(path, "WHERE open_interest IS NULL"))
}

func (suite *DuckDBWriterTestSuite) TestWriteBeforeInitialize() {
	writer := NewDuckDBWriter(filepath.Join(suite.tempDir, "x.parquet"), nil)

	suite.Error(writer.Write(testBar(1, 100)))

	_, err := writer.Finalize()
	suite.Error(err)
}

func (suite *DuckDBWriterTestSuite) TestFinalizeTwice() {
	writer := NewDuckDBWriter(filepath.Join(suite.tempDir, "twice.parquet"), nil)
	suite.Require().NoError(writer.Initialize())

	defer writer.Close()

	suite.Require().NoError(writer.Write(testBar(1, 100)))

	_, err := writer.Finalize()
	suite.Require().NoError(err)

	_, err = writer.Finalize()
	suite.Error(err)
}

func (suite *DuckDBWriterTestSuite) TestCloseIsIdempotent() {
	writer := NewDuckDBWriter(filepath.Join(suite.tempDir, "close.parquet"), nil)
	suite.Require().NoError(writer.Initialize())

	suite.NoError(writer.Close())
	suite.NoError(writer.Close())
}

func (suite *DuckDBWriterTestSuite) TestArchiveWriterUpserts() {
	first := NewArchiveWriter(suite.tempDir, "IF2406.CFFEX", "1d", nil)
	suite.Require().NoError(first.Initialize())
	suite.Require().NoError(first.Write(testBar(1, 100)))
	suite.Require().NoError(first.Write(testBar(2, 101)))

	path, err := first.Finalize()
	suite.Require().NoError(err)
	suite.Require().NoError(first.Close())
	suite.Equal(filepath.Join(suite.tempDir, "IF2406.CFFEX_1d.parquet"), path)

	second := NewArchiveWriter(suite.tempDir, "IF2406.CFFEX", "1d", nil)
	suite.Require().NoError(second.Initialize())
	suite.Require().NoError(second.Write(testBar(2, 250)))
	suite.Require().NoError(second.Write(testBar(3, 102)))

	_, err = second.Finalize()
	suite.Require().NoError(err)
	suite.Require().NoError(second.Close())

	suite.Equal(3, suite.countRows(path, ""))
	suite.Equal(1, suite.countRows(path, "WHERE close = 250"))
	suite.Equal(0, suite.countRows(path, "WHERE close = 101"))
}

func (suite *DuckDBWriterTestSuite) TestArchiveWriterNotInitialized() {
	writer := NewArchiveWriter(suite.tempDir, "X", "1d", nil)

	suite.Error(writer.Write(testBar(1, 1)))
	suite.NoError(writer.Close())
}
