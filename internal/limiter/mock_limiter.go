package limiter

// MockLimiter is a test double for the Limiter interface. Tests control the
// allow/deny outcome and can verify which IPs were checked.
type MockLimiter struct {
	AllowResult bool // value every Allow() call returns

	// Track method calls for verification in tests
	AllowCalls  []string // IPs that Allow() was called with
	CloseCalled bool

	CloseError error // error to return from Close(), if any
}

// NewMockLimiter creates a mock limiter that allows everything when
// allowResult is true and denies everything otherwise.
func NewMockLimiter(allowResult bool) *MockLimiter {
	return &MockLimiter{
		AllowResult: allowResult,
		AllowCalls:  []string{},
	}
}

// Allow implements the Limiter interface
func (m *MockLimiter) Allow(ip string) bool {
	m.AllowCalls = append(m.AllowCalls, ip)
	return m.AllowResult
}

// Close implements the Limiter interface
func (m *MockLimiter) Close() error {
	m.CloseCalled = true
	return m.CloseError
}
