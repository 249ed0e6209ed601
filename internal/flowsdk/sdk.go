package flowsdk

import (
	"github.com/dayflowhq/dayflow-client/internal/version"
	"resty.dev/v3"
)

// DayflowSDK is the client for the Dayflow server API: the replay transport
// for queued mutations and the websocket live-update channel.
type DayflowSDK struct {
	client  *resty.Client
	baseURL string
	Replay  *ReplayAPI
	Events  *EventsAPI
}

// New creates a new DayflowSDK client
func New(baseURL string) (*DayflowSDK, error) {
	if baseURL == "" {
		return nil, ErrNoServerURL
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader(HeaderUserAgent, "Dayflow/"+version.Version).
		SetHeader(HeaderDayflowVersion, version.Version).
		AddContentTypeEncoder("json", jsonEncoder).
		AddContentTypeDecoder("json", jsonDecoder)

	return &DayflowSDK{
		client:  client,
		baseURL: baseURL,
		Replay:  newReplayAPI(client),
		Events:  newEventsAPI(baseURL),
	}, nil
}

// Login sets the user identity and bearer credential for API calls and events
func (s *DayflowSDK) Login(user, credential string) error {
	if credential == "" {
		return ErrNoCredential
	}
	s.client.SetAuthToken(credential)
	s.client.SetHeader(HeaderDayflowUser, user)
	s.Events.SetIdentity(user, credential)
	return nil
}

// Close terminates all connections and cleans up resources
func (s *DayflowSDK) Close() {
	s.Events.Close()
	s.client.Close()
}
