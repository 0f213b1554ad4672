package provider_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-insight/internal/types"
	"github.com/rxtech-lab/argo-insight/mocks"
	"github.com/rxtech-lab/argo-insight/pkg/errors"
	"github.com/rxtech-lab/argo-insight/pkg/marketdata/provider"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type CacheTestSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	mockProvider *mocks.MockProvider
	req          provider.Request
	bars         []types.Bar
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}

func (suite *CacheTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.mockProvider = mocks.NewMockProvider(suite.ctrl)
	suite.req = provider.Request{
		Symbol:   "000300.SH",
		DataType: types.DataTypeIndex,
		Start:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	suite.bars = mocks.GenerateTrend("000300.SH", 20, 0.1)
}

func (suite *CacheTestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

func (suite *CacheTestSuite) TestCacheKey() {
	suite.Equal("bars:tushare:index:000300.SH:2024-01-01:2024-03-01:1d", provider.CacheKey("tushare", suite.req))

	weekly := suite.req
	weekly.Interval = provider.IntervalOneWeek
	suite.NotEqual(provider.CacheKey("tushare", suite.req), provider.CacheKey("tushare", weekly))
}

func (suite *CacheTestSuite) TestCachedProviderServesRepeatRequests() {
	suite.mockProvider.EXPECT().FetchBars(gomock.Any(), suite.req).Return(suite.bars, nil).Times(1)

	cached := provider.NewCachedProvider(suite.mockProvider, provider.NewMemoryCache(), "tushare", time.Hour, nil)

	first, err := cached.FetchBars(context.Background(), suite.req)
	suite.Require().NoError(err)

	second, err := cached.FetchBars(context.Background(), suite.req)
	suite.Require().NoError(err)
	suite.Equal(first, second)
	suite.Len(second, 20)
}

func (suite *CacheTestSuite) TestCachedProviderDoesNotCacheErrors() {
	gomock.InOrder(
		suite.mockProvider.EXPECT().FetchBars(gomock.Any(), gomock.Any()).
			Return(nil, errors.New(errors.ErrCodeMarketDataFetchFailed, "timeout")),
		suite.mockProvider.EXPECT().FetchBars(gomock.Any(), gomock.Any()).
			Return(suite.bars, nil),
	)

	cached := provider.NewCachedProvider(suite.mockProvider, provider.NewMemoryCache(), "tushare", time.Hour, nil)

	_, err := cached.FetchBars(context.Background(), suite.req)
	suite.Error(err)

	bars, err := cached.FetchBars(context.Background(), suite.req)
	suite.NoError(err)
	suite.Len(bars, 20)
}

func (suite *CacheTestSuite) TestMemoryCacheExpiry() {
	cache := provider.NewMemoryCache()
	ctx := context.Background()

	suite.Require().NoError(cache.Set(ctx, "short", suite.bars, time.Millisecond))
	suite.Require().NoError(cache.Set(ctx, "forever", suite.bars, 0))

	time.Sleep(5 * time.Millisecond)

	_, ok, err := cache.Get(ctx, "short")
	suite.NoError(err)
	suite.False(ok)

	bars, ok, err := cache.Get(ctx, "forever")
	suite.NoError(err)
	suite.True(ok)
	suite.Len(bars, 20)

	_, ok, _ = cache.Get(ctx, "missing")
	suite.False(ok)
}

func (suite *CacheTestSuite) TestMemoryCacheReturnsCopies() {
	cache := provider.NewMemoryCache()
	ctx := context.Background()

	suite.Require().NoError(cache.Set(ctx, "k", suite.bars, 0))

	bars, _, _ := cache.Get(ctx, "k")
	bars[0].Close = -1

	again, _, _ := cache.Get(ctx, "k")
	suite.NotEqual(-1.0, again[0].Close)
}

func (suite *CacheTestSuite) TestRedisCacheUnreachable() {
	cache := provider.NewRedisCache(provider.RedisCacheConfig{Addr: "127.0.0.1:1"})
	defer cache.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	suite.Error(cache.Ping(ctx))

	_, ok, err := cache.Get(ctx, "k")
	suite.Error(err)
	suite.False(ok)

	// the wrapped provider still answers when the cache is down
	suite.mockProvider.EXPECT().FetchBars(gomock.Any(), gomock.Any()).Return(suite.bars, nil)

	bars, err := provider.NewCachedProvider(suite.mockProvider, cache, "tushare", time.Hour, nil).FetchBars(ctx, suite.req)
	suite.NoError(err)
	suite.Len(bars, 20)
}

// TestRedisCacheRoundTrip needs a live server in REDIS_ADDR.
func (suite *CacheTestSuite) TestRedisCacheRoundTrip() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		suite.T().Skip("REDIS_ADDR not set")
	}

	cache := provider.NewRedisCache(provider.RedisCacheConfig{Addr: addr})
	defer cache.Close()

	ctx := context.Background()
	key := provider.CacheKey("test", suite.req)

	suite.Require().NoError(cache.Set(ctx, key, suite.bars, time.Minute))

	bars, ok, err := cache.Get(ctx, key)
	suite.Require().NoError(err)
	suite.True(ok)
	suite.Require().Len(bars, 20)
	suite.Equal(suite.bars[5].Close, bars[5].Close)
	suite.True(bars[5].Time.Equal(suite.bars[5].Time))
}
