package providers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"

	"github.com/i474232898/city-explorer/internal/explorer"
	"github.com/i474232898/city-explorer/internal/explorer/providers"
	"github.com/i474232898/city-explorer/internal/store"
)

const darkSkyURL = "https://api.darksky.net/forecast/key/47.6062,-122.3321"

type MockedDarkSkyTestSuite struct {
	MockedProviderTestSuite

	prov *providers.DarkSkyProvider
}

func (suite *MockedDarkSkyTestSuite) SetupTest() {
	suite.MockedProviderTestSuite.SetupTest()

	suite.prov = providers.NewDarkSkyProvider(suite.http, "key", 2*time.Minute)
}

func (suite *MockedDarkSkyTestSuite) TestKindAndTTL() {
	suite.Equal(explorer.KindWeather, suite.prov.Kind())
	suite.Equal(2*time.Minute, suite.prov.TTL())
}

func (suite *MockedDarkSkyTestSuite) TestFetchOk() {
	httpmock.RegisterResponder("GET", darkSkyURL,
		httpmock.NewStringResponder(http.StatusOK, `{
  "latitude": 47.6062,
  "longitude": -122.3321,
  "daily": {
    "summary": "Rain throughout the week.",
    "data": [
      {"time": 1700000000, "summary": "Partly cloudy"},
      {"time": 1700086400, "summary": "Light rain in the afternoon."}
    ]
  }
}`))

	days, err := suite.prov.Fetch(context.Background(), seattle)

	suite.NoError(err)
	suite.Equal([]explorer.WeatherDay{
		{Forecast: "Partly cloudy", Time: "Tue Nov 14 2023"},
		{Forecast: "Light rain in the afternoon.", Time: "Wed Nov 15 2023"},
	}, days)
}

func (suite *MockedDarkSkyTestSuite) TestFetchEmptyForecast() {
	httpmock.RegisterResponder("GET", darkSkyURL,
		httpmock.NewStringResponder(http.StatusOK, `{"daily": {"data": []}}`))

	days, err := suite.prov.Fetch(context.Background(), seattle)

	suite.NoError(err)
	suite.Empty(days)
}

func (suite *MockedDarkSkyTestSuite) TestFetchMissingDaily() {
	httpmock.RegisterResponder("GET", darkSkyURL,
		httpmock.NewStringResponder(http.StatusOK, `{"currently": {}}`))

	_, err := suite.prov.Fetch(context.Background(), seattle)

	suite.ErrorIs(err, explorer.ErrUpstream)
}

func (suite *MockedDarkSkyTestSuite) TestFetchFailed() {
	httpmock.RegisterResponder("GET", darkSkyURL,
		httpmock.NewStringResponder(http.StatusForbidden, `{"error": "permission denied"}`))

	_, err := suite.prov.Fetch(context.Background(), seattle)

	ue := suite.upstreamError(err)
	suite.Equal(providers.NameDarkSky, ue.Provider)
	suite.Equal(http.StatusForbidden, ue.StatusCode)
}

func (suite *MockedDarkSkyTestSuite) TestFetchBadJSON() {
	httpmock.RegisterResponder("GET", darkSkyURL,
		httpmock.NewStringResponder(http.StatusOK, `{[`))

	_, err := suite.prov.Fetch(context.Background(), seattle)

	suite.ErrorIs(err, explorer.ErrUpstream)
}

func (suite *MockedDarkSkyTestSuite) TestCustomBaseURL() {
	httpmock.RegisterResponder("GET", "http://weather.internal/forecast/key/47.6062,-122.3321",
		httpmock.NewStringResponder(http.StatusOK, `{"daily": {"data": []}}`))

	prov := providers.NewDarkSkyProvider(suite.http, "key", time.Minute,
		providers.WithBaseURL("http://weather.internal/forecast"))

	_, err := prov.Fetch(context.Background(), seattle)

	suite.NoError(err)
}

func (suite *MockedDarkSkyTestSuite) TestCircuitOpensAfterRepeatedFailures() {
	httpmock.RegisterResponder("GET", darkSkyURL,
		httpmock.NewStringResponder(http.StatusInternalServerError, ""))

	for i := 0; i < 6; i++ {
		_, err := suite.prov.Fetch(context.Background(), seattle)
		suite.Equal(http.StatusInternalServerError, suite.upstreamError(err).StatusCode)
	}

	_, err := suite.prov.Fetch(context.Background(), seattle)

	suite.ErrorIs(err, explorer.ErrUpstream)
	suite.Zero(suite.upstreamError(err).StatusCode)
	suite.Equal(6, httpmock.GetTotalCallCount())
}

// A first read through the cache fetches, stamps and stores the forecast.
func (suite *MockedDarkSkyTestSuite) TestReadThroughMemoryStore() {
	httpmock.RegisterResponder("GET", darkSkyURL,
		httpmock.NewStringResponder(http.StatusOK,
			`{"daily": {"data": [{"time": 1700000000, "summary": "Partly cloudy"}]}}`))

	st := store.NewMemoryStore()
	loc := seattle
	suite.Require().NoError(st.InsertLocation(context.Background(), &loc))

	cache := explorer.NewCache[explorer.WeatherDay, *explorer.WeatherDay](st.Weather(), suite.prov, zerolog.Nop())

	before := time.Now().UnixMilli()
	days, err := cache.Get(context.Background(), loc)
	suite.Require().NoError(err)
	suite.Require().Len(days, 1)
	suite.Equal("Partly cloudy", days[0].Forecast)
	suite.Equal("Tue Nov 14 2023", days[0].Time)

	stored, err := st.Weather().Find(context.Background(), loc.ID)
	suite.Require().NoError(err)
	suite.Require().Len(stored, 1)
	suite.Equal(loc.ID, stored[0].LocationID)
	suite.GreaterOrEqual(stored[0].CreatedAt, before)

	_, err = cache.Get(context.Background(), loc)
	suite.NoError(err)
	suite.Equal(1, httpmock.GetTotalCallCount())
}

func TestDarkSky(t *testing.T) {
	suite.Run(t, &MockedDarkSkyTestSuite{})
}
