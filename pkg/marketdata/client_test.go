package marketdata

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-insight/internal/types"
	"github.com/rxtech-lab/argo-insight/mocks"
	"github.com/rxtech-lab/argo-insight/pkg/errors"
	"github.com/rxtech-lab/argo-insight/pkg/marketdata/provider"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

// ClientTestSuite is a test suite for the Client implementation
type ClientTestSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	mockProvider *mocks.MockProvider
	tempDir      string
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func (suite *ClientTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.mockProvider = mocks.NewMockProvider(suite.ctrl)
	suite.tempDir = suite.T().TempDir()
}

func (suite *ClientTestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

func (suite *ClientTestSuite) newClient(onProgress OnDownloadProgress) *Client {
	return NewClientWithProvider(suite.mockProvider, ClientConfig{
		ProviderType: provider.ProviderTushare,
		WriterType:   WriterDuckDB,
		DataPath:     suite.tempDir,
	}, onProgress, nil)
}

func (suite *ClientTestSuite) params() DownloadParams {
	return DownloadParams{
		Symbol:    "600000.SH",
		DataType:  types.DataTypeStock,
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		Interval:  provider.IntervalOneDay,
	}
}

func (suite *ClientTestSuite) TestDownloadWritesParquet() {
	config := mocks.DefaultConfig()
	config.Count = 5
	bars := mocks.NewDataGenerator(1).Generate(config)

	params := suite.params()
	suite.mockProvider.EXPECT().
		FetchBars(gomock.Any(), provider.Request{
			Symbol:   params.Symbol,
			DataType: params.DataType,
			Start:    params.StartDate,
			End:      params.EndDate,
			Interval: params.Interval,
		}).
		Return(bars, nil).
		Times(1)

	var progress []float64

	client := suite.newClient(func(current, total float64, _ string) {
		suite.Equal(float64(5), total)
		progress = append(progress, current)
	})

	path, err := client.Download(context.Background(), params)
	suite.Require().NoError(err)
	suite.Equal(filepath.Join(suite.tempDir, "600000.SH_2024-01-01_2024-01-31_1d.parquet"), path)
	suite.Equal([]float64{1, 2, 3, 4, 5}, progress)

	_, err = os.Stat(path)
	suite.NoError(err)

	parquetProvider, err := provider.NewParquetProvider(path)
	suite.Require().NoError(err)

	readBack, err := parquetProvider.FetchBars(context.Background(), provider.Request{
		Symbol: "600000.SH",
		Start:  params.StartDate,
		End:    time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
	})
	suite.Require().NoError(err)
	suite.Len(readBack, 5)
	suite.InDelta(bars[0].Close, readBack[0].Close, 1e-9)
}

func (suite *ClientTestSuite) TestDownloadProviderError() {
	suite.mockProvider.EXPECT().
		FetchBars(gomock.Any(), gomock.Any()).
		Return(nil, errors.New(errors.ErrCodeDataNotFound, "no data")).
		Times(1)

	_, err := suite.newClient(nil).Download(context.Background(), suite.params())
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
}

func (suite *ClientTestSuite) TestDownloadInvalidParams() {
	testCases := []struct {
		name   string
		modify func(*DownloadParams)
	}{
		{"missing symbol", func(p *DownloadParams) { p.Symbol = "" }},
		{"unknown data type", func(p *DownloadParams) { p.DataType = "bond" }},
		{"end before start", func(p *DownloadParams) { p.EndDate = p.StartDate.AddDate(0, 0, -1) }},
		{"bad interval", func(p *DownloadParams) { p.Interval = "2d" }},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			params := suite.params()
			tc.modify(&params)

			_, err := suite.newClient(nil).Download(context.Background(), params)
			suite.Error(err)
			suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
		})
	}
}

func (suite *ClientTestSuite) TestNewClientValidation() {
	_, err := NewClient(ClientConfig{ProviderType: "yahoo", WriterType: WriterDuckDB, DataPath: suite.tempDir}, nil, nil)
	suite.Error(err)

	_, err = NewClient(ClientConfig{ProviderType: provider.ProviderBinance, WriterType: WriterDuckDB}, nil, nil)
	suite.Error(err)

	client, err := NewClient(ClientConfig{ProviderType: provider.ProviderBinance, WriterType: WriterDuckDB, DataPath: suite.tempDir}, nil, nil)
	suite.NoError(err)
	suite.NotNil(client)
}

func (suite *ClientTestSuite) TestOutputFileName() {
	params := suite.params()
	params.Interval = ""

	suite.Equal("600000.SH_2024-01-01_2024-01-31_1d.parquet", OutputFileName(params))
}

func (suite *ClientTestSuite) TestDownloadArchiveMerges() {
	config := mocks.DefaultConfig()
	config.Count = 10
	bars := mocks.NewDataGenerator(3).Generate(config)

	gomock.InOrder(
		suite.mockProvider.EXPECT().FetchBars(gomock.Any(), gomock.Any()).Return(bars[:6], nil),
		suite.mockProvider.EXPECT().FetchBars(gomock.Any(), gomock.Any()).Return(bars[4:], nil),
	)

	client := NewClientWithProvider(suite.mockProvider, ClientConfig{
		ProviderType: provider.ProviderTushare,
		WriterType:   WriterArchive,
		DataPath:     suite.tempDir,
	}, nil, nil)

	first, err := client.Download(context.Background(), suite.params())
	suite.Require().NoError(err)

	second, err := client.Download(context.Background(), suite.params())
	suite.Require().NoError(err)
	suite.Equal(first, second)
	suite.Equal(filepath.Join(suite.tempDir, "600000.SH_1d.parquet"), second)

	parquetProvider, err := provider.NewParquetProvider(second)
	suite.Require().NoError(err)

	merged, err := parquetProvider.FetchBars(context.Background(), provider.Request{Symbol: "600000.SH"})
	suite.Require().NoError(err)
	suite.Len(merged, 10)
}
