package advisor

import "context"

// MockClient is a test double for the advisor Client interface.
type MockClient struct {
	Response *Recommendation
	Err      error
	Calls    []*Context // records contexts sent
}

// Recommend records the call and returns the mock response.
func (m *MockClient) Recommend(ctx context.Context, rc *Context) (*Recommendation, error) {
	m.Calls = append(m.Calls, rc)
	return m.Response, m.Err
}
