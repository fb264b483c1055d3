package providers_test

import (
	"net/http"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/suite"

	"github.com/i474232898/city-explorer/internal/explorer"
)

var seattle = explorer.Location{
	ID:             1,
	SearchQuery:    "Seattle, WA",
	FormattedQuery: "Seattle, WA, USA",
	Latitude:       47.6062,
	Longitude:      -122.3321,
}

type MockedProviderTestSuite struct {
	suite.Suite

	http *http.Client
}

func (suite *MockedProviderTestSuite) SetupSuite() {
	httpmock.Activate()
}

func (suite *MockedProviderTestSuite) TearDownSuite() {
	httpmock.DeactivateAndReset()
}

func (suite *MockedProviderTestSuite) SetupTest() {
	suite.http = &http.Client{}
}

func (suite *MockedProviderTestSuite) TearDownTest() {
	httpmock.Reset()
}

func (suite *MockedProviderTestSuite) upstreamError(err error) *explorer.UpstreamError {
	var ue *explorer.UpstreamError
	suite.Require().ErrorAs(err, &ue)
	return ue
}
