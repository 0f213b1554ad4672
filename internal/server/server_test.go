package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-insight/internal/analysis"
	"github.com/rxtech-lab/argo-insight/internal/types"
	"github.com/rxtech-lab/argo-insight/mocks"
	"github.com/rxtech-lab/argo-insight/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type ServerTestSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	mockProvider *mocks.MockProvider
	mockStore    *mocks.MockStore
	server       *Server
	httpServer   *httptest.Server
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (suite *ServerTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.mockProvider = mocks.NewMockProvider(suite.ctrl)
	suite.mockStore = mocks.NewMockStore(suite.ctrl)

	now := time.Date(2024, 12, 31, 12, 0, 0, 0, time.UTC)
	service := analysis.NewService(suite.mockProvider, nil,
		analysis.WithStrictDates(),
		analysis.WithStore(suite.mockStore),
		analysis.WithClock(func() time.Time { return now }),
	)

	suite.server = NewServer(service, suite.mockStore, Config{BaseURL: "http://insight.local/", RequestTimeout: time.Minute}, nil, nil)
	suite.httpServer = httptest.NewServer(suite.server.Handler())
}

func (suite *ServerTestSuite) TearDownTest() {
	suite.httpServer.Close()
	suite.ctrl.Finish()
}

func (suite *ServerTestSuite) post(path, body string) (*http.Response, []byte) {
	resp, err := http.Post(suite.httpServer.URL+path, "application/json", bytes.NewBufferString(body))
	suite.Require().NoError(err)

	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	suite.Require().NoError(err)

	return resp, data
}

func (suite *ServerTestSuite) get(path string) (*http.Response, []byte) {
	resp, err := http.Get(suite.httpServer.URL + path)
	suite.Require().NoError(err)

	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	suite.Require().NoError(err)

	return resp, data
}

func (suite *ServerTestSuite) TestAnalyze() {
	suite.mockProvider.EXPECT().FetchBars(gomock.Any(), gomock.Any()).
		Return(mocks.GenerateTrend("600000.SH", 60, 0.1), nil)
	suite.mockStore.EXPECT().Save(gomock.Any(), gomock.Any()).Return("output/a.json", nil)

	resp, body := suite.post("/analyze", `{"symbol":"600000","start_date":"2024-01-01","end_date":"2024-06-30","data_type":"股票"}`)
	suite.Require().Equal(http.StatusOK, resp.StatusCode, string(body))

	var out AnalyzeResponse
	suite.Require().NoError(json.Unmarshal(body, &out))
	suite.Equal("analysis completed", out.Message)
	suite.Equal("600000.SH", out.Symbol)
	suite.Equal("2024-01-01", out.StartDate)
	suite.Equal("2024-06-30", out.EndDate)
	suite.Equal("http://insight.local/analyses/"+out.ID, out.JSONFileURL)
	suite.Contains(out.Analysis, "600000.SH")
	suite.Equal(500000.0, out.Report.InitialCapital)
}

func (suite *ServerTestSuite) TestAnalyzeRejectsBadInput() {
	testCases := []struct {
		name string
		body string
	}{
		{"future dates", `{"symbol":"600000","start_date":"2024-12-01","end_date":"2025-01-31"}`},
		{"inverted range", `{"symbol":"600000","start_date":"2024-06-01","end_date":"2024-01-01"}`},
		{"bad date", `{"symbol":"600000","start_date":"2024/01/01","end_date":"2024-06-01"}`},
		{"bad symbol", `{"symbol":"ABC","start_date":"2024-01-01","end_date":"2024-06-01"}`},
		{"unknown data type", `{"symbol":"600000","start_date":"2024-01-01","end_date":"2024-06-01","data_type":"bond"}`},
		{"malformed body", `{"symbol":`},
		{"unknown field", `{"ticker":"600000"}`},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			resp, body := suite.post("/analyze", tc.body)
			suite.Equal(http.StatusBadRequest, resp.StatusCode, string(body))

			var out errorResponse
			suite.NoError(json.Unmarshal(body, &out))
			suite.NotEmpty(out.Error)
		})
	}
}

func (suite *ServerTestSuite) TestAnalyzeProviderFailure() {
	suite.mockProvider.EXPECT().FetchBars(gomock.Any(), gomock.Any()).
		Return(nil, errors.New(errors.ErrCodeMarketDataFetchFailed, "upstream down"))

	resp, body := suite.post("/analyze", `{"symbol":"600000","start_date":"2024-01-01","end_date":"2024-06-30"}`)
	suite.Equal(http.StatusInternalServerError, resp.StatusCode)

	var out errorResponse
	suite.Require().NoError(json.Unmarshal(body, &out))
	suite.Equal(int(errors.ErrCodeMarketDataFetchFailed), out.Code)
}

func (suite *ServerTestSuite) TestBacktestKeepsDefaultsForMissingConfigFields() {
	suite.mockProvider.EXPECT().FetchBars(gomock.Any(), gomock.Any()).
		Return(mocks.GenerateTrend("600000.SH", 50, 0.2), nil)

	resp, body := suite.post("/backtest",
		`{"symbol":"600000","start_date":"2024-01-01","end_date":"2024-06-30","config":{"initial_capital":100000}}`)
	suite.Require().Equal(http.StatusOK, resp.StatusCode, string(body))

	var out BacktestResponse
	suite.Require().NoError(json.Unmarshal(body, &out))
	suite.Equal("600000.SH", out.Symbol)
	suite.Equal(100000.0, out.Config.InitialCapital)
	suite.Equal(0.3, out.Config.PositionRatio)
	suite.Len(out.Portfolio, 50)
	suite.Equal(100000.0, out.Report.InitialCapital)
}

func (suite *ServerTestSuite) TestBacktestErrors() {
	resp, _ := suite.post("/backtest",
		`{"symbol":"600000","start_date":"2024-01-01","end_date":"2024-06-30","config":{"position_ratio":5}}`)
	suite.Equal(http.StatusBadRequest, resp.StatusCode)

	resp, _ = suite.post("/backtest",
		`{"symbol":"600000","start_date":"2024-01-01","end_date":"2024-06-30","config":"all in"}`)
	suite.Equal(http.StatusBadRequest, resp.StatusCode)

	suite.mockProvider.EXPECT().FetchBars(gomock.Any(), gomock.Any()).
		Return(nil, errors.New(errors.ErrCodeDataNotFound, "no bars"))

	resp, _ = suite.post("/backtest", `{"symbol":"600000","start_date":"2024-01-01","end_date":"2024-06-30"}`)
	suite.Equal(http.StatusNotFound, resp.StatusCode)
}

func (suite *ServerTestSuite) TestGetAnalysis() {
	stored := types.Analysis{ID: "abc", Symbol: "600000.SH", Analysis: "text"}

	suite.mockStore.EXPECT().Get(gomock.Any(), "abc").Return(stored, nil)
	suite.mockStore.EXPECT().Get(gomock.Any(), "nope").
		Return(types.Analysis{}, errors.New(errors.ErrCodeArtifactNotFound, "missing"))

	resp, body := suite.get("/analyses/abc")
	suite.Require().Equal(http.StatusOK, resp.StatusCode)

	var out types.Analysis
	suite.Require().NoError(json.Unmarshal(body, &out))
	suite.Equal("text", out.Analysis)

	resp, _ = suite.get("/analyses/nope")
	suite.Equal(http.StatusNotFound, resp.StatusCode)
}

func (suite *ServerTestSuite) TestListAnalyses() {
	suite.mockStore.EXPECT().List(gomock.Any(), "600000.SH").
		Return([]types.Analysis{{ID: "b"}, {ID: "a"}}, nil)
	suite.mockStore.EXPECT().List(gomock.Any(), "").Return(nil, nil)

	resp, body := suite.get("/analyses?symbol=600000.SH")
	suite.Require().Equal(http.StatusOK, resp.StatusCode)

	var out []types.Analysis
	suite.Require().NoError(json.Unmarshal(body, &out))
	suite.Len(out, 2)
	suite.Equal("b", out[0].ID)

	_, body = suite.get("/analyses")
	suite.JSONEq("[]", string(body))
}

func (suite *ServerTestSuite) TestWithoutStore() {
	srv := httptest.NewServer(NewServer(nil, nil, Config{}, nil, nil).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/analyses/abc")
	suite.Require().NoError(err)
	resp.Body.Close()
	suite.Equal(http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/analyses")
	suite.Require().NoError(err)
	resp.Body.Close()
	suite.Equal(http.StatusOK, resp.StatusCode)
}

func (suite *ServerTestSuite) TestHealthAndMetrics() {
	resp, body := suite.get("/healthz")
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	suite.Contains(string(body), `"status":"ok"`)

	resp, body = suite.get("/metrics")
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	suite.Contains(string(body), `insight_http_requests_total{code="200",method="GET",route="/healthz"} 1`)
}

func (suite *ServerTestSuite) TestMethodNotAllowed() {
	resp, _ := suite.get("/analyze")
	suite.Equal(http.StatusMethodNotAllowed, resp.StatusCode)
}

func (suite *ServerTestSuite) TestStatusFor() {
	suite.Equal(http.StatusBadRequest, statusFor(errors.ErrCodeInvalidSymbol))
	suite.Equal(http.StatusBadRequest, statusFor(errors.ErrCodeBacktestConfigError))
	suite.Equal(http.StatusNotFound, statusFor(errors.ErrCodeArtifactNotFound))
	suite.Equal(http.StatusNotFound, statusFor(errors.ErrCodeBacktestEmptySeries))
	suite.Equal(http.StatusInternalServerError, statusFor(errors.ErrCodeUnknown))
}

func (suite *ServerTestSuite) TestListenAndServeStopsOnCancel() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- NewServer(nil, nil, Config{}, nil, nil).ListenAndServe(ctx, "127.0.0.1:0")
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		suite.NoError(err)
	case <-time.After(5 * time.Second):
		suite.Fail("server did not stop")
	}
}
