package mocks

import (
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/valyala/fasthttp"
)

type MockDoer struct {
	mock.Mock
}

// DoTimeout records the call; Run hooks can fill resp.
func (m *MockDoer) DoTimeout(req *fasthttp.Request, resp *fasthttp.Response, timeout time.Duration) error {
	args := m.Called(req, resp, timeout)
	return args.Error(0)
}
