package mocks

//go:generate mockgen -destination=./mock_provider.go -package=mocks github.com/rxtech-lab/argo-insight/pkg/marketdata/provider Provider
//go:generate mockgen -destination=./mock_completer.go -package=mocks github.com/rxtech-lab/argo-insight/internal/narrative Completer
//go:generate mockgen -destination=./mock_analysis_store.go -package=mocks github.com/rxtech-lab/argo-insight/internal/store Store
