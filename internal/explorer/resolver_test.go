package explorer_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/i474232898/city-explorer/internal/explorer"
	"github.com/i474232898/city-explorer/internal/store"
)

var seattle = explorer.Geocode{
	FormattedAddress: "Seattle, WA, USA",
	Latitude:         47.6062,
	Longitude:        -122.3321,
}

type ResolverTestSuite struct {
	suite.Suite

	cacheSize int
	store     *store.MemoryStore
	geocoder  *GeocoderMock
	resolver  *explorer.Resolver
}

func (suite *ResolverTestSuite) SetupTest() {
	suite.store = store.NewMemoryStore()
	suite.geocoder = &GeocoderMock{}

	r, err := explorer.NewResolver(suite.store, suite.geocoder, suite.cacheSize, zerolog.Nop())
	suite.Require().NoError(err)
	suite.resolver = r
}

func (suite *ResolverTestSuite) TearDownTest() {
	suite.geocoder.AssertExpectations(suite.T())
}

func (suite *ResolverTestSuite) TestResolveUnseenQuery() {
	suite.geocoder.On("Geocode", mock.Anything, "Seattle, WA").Return(seattle, nil).Once()

	loc, err := suite.resolver.Resolve(context.Background(), "Seattle, WA")

	suite.NoError(err)
	suite.Equal(explorer.Location{
		ID:             1,
		SearchQuery:    "Seattle, WA",
		FormattedQuery: "Seattle, WA, USA",
		Latitude:       47.6062,
		Longitude:      -122.3321,
	}, loc)
	suite.Equal(1, suite.store.LocationCount())
}

func (suite *ResolverTestSuite) TestSecondResolveSkipsGeocoder() {
	suite.geocoder.On("Geocode", mock.Anything, "Seattle, WA").Return(seattle, nil).Once()

	first, err := suite.resolver.Resolve(context.Background(), "Seattle, WA")
	suite.Require().NoError(err)

	second, err := suite.resolver.Resolve(context.Background(), "Seattle, WA")

	suite.NoError(err)
	suite.Equal(first, second)
	suite.geocoder.AssertNumberOfCalls(suite.T(), "Geocode", 1)
	suite.Equal(1, suite.store.LocationCount())
}

func (suite *ResolverTestSuite) TestStoredLocationIsServedWithoutGeocoder() {
	stored := explorer.Location{
		SearchQuery:    "Portland, OR",
		FormattedQuery: "Portland, OR, USA",
		Latitude:       45.5152,
		Longitude:      -122.6784,
	}
	suite.Require().NoError(suite.store.InsertLocation(context.Background(), &stored))

	loc, err := suite.resolver.Resolve(context.Background(), "Portland, OR")

	suite.NoError(err)
	suite.Equal(stored, loc)
	suite.geocoder.AssertNotCalled(suite.T(), "Geocode", mock.Anything, mock.Anything)
}

func (suite *ResolverTestSuite) TestNoMatchCreatesNothing() {
	suite.geocoder.On("Geocode", mock.Anything, "Atlantis").
		Return(explorer.Geocode{}, explorer.ErrNoMatch).Once()

	_, err := suite.resolver.Resolve(context.Background(), "Atlantis")

	suite.ErrorIs(err, explorer.ErrNoMatch)
	suite.Equal(0, suite.store.LocationCount())
}

func (suite *ResolverTestSuite) TestGeocoderFailureIsUpstreamError() {
	suite.geocoder.On("Geocode", mock.Anything, "Seattle, WA").
		Return(explorer.Geocode{}, errors.New("connection reset")).Once()

	_, err := suite.resolver.Resolve(context.Background(), "Seattle, WA")

	suite.ErrorIs(err, explorer.ErrUpstream)
	suite.NotErrorIs(err, explorer.ErrNoMatch)
	suite.Equal(0, suite.store.LocationCount())
}

func (suite *ResolverTestSuite) TestBlankQuery() {
	_, err := suite.resolver.Resolve(context.Background(), "   ")

	suite.ErrorIs(err, explorer.ErrInvalidQuery)
}

func (suite *ResolverTestSuite) TestConcurrentResolveCallsGeocoderOnce() {
	suite.geocoder.On("Geocode", mock.Anything, "Seattle, WA").
		Return(seattle, nil).
		After(50 * time.Millisecond).
		Once()

	const workers = 8

	var wg sync.WaitGroup
	ids := make([]int64, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			loc, err := suite.resolver.Resolve(context.Background(), "Seattle, WA")
			ids[i], errs[i] = loc.ID, err
		}()
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		suite.NoError(errs[i])
		suite.EqualValues(1, ids[i])
	}
	suite.geocoder.AssertNumberOfCalls(suite.T(), "Geocode", 1)
	suite.Equal(1, suite.store.LocationCount())
}

func TestResolverWithLocationCache(t *testing.T) {
	suite.Run(t, &ResolverTestSuite{cacheSize: 16})
}

func TestResolverWithoutLocationCache(t *testing.T) {
	suite.Run(t, &ResolverTestSuite{cacheSize: 0})
}
