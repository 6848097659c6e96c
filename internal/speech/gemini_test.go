package speech

import (
	"fmt"
	"testing"

	"google.golang.org/genai"
)

func TestClassifyGeminiErr(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Class
	}{
		{"api 401", genai.APIError{Code: 401, Message: "unauthorized"}, ClassAuth},
		{"api 403", genai.APIError{Code: 403, Message: "forbidden"}, ClassAuth},
		{"api 400", genai.APIError{Code: 400, Message: "bad ssml"}, ClassInvalidText},
		{"api 429", genai.APIError{Code: 429, Message: "slow down"}, ClassRateLimited},
		{"api 500", genai.APIError{Code: 500, Message: "boom"}, ClassTransient},
		{"wrapped api", fmt.Errorf("generate: %w", genai.APIError{Code: 429}), ClassRateLimited},
		{"quota message", fmt.Errorf("quota exceeded for project"), ClassRateLimited},
		{"resource exhausted", fmt.Errorf("rpc error: RESOURCE_EXHAUSTED"), ClassRateLimited},
		{"api key message", fmt.Errorf("API key not valid"), ClassAuth},
		{"invalid argument", fmt.Errorf("rpc error: INVALID_ARGUMENT"), ClassInvalidText},
		{"plain network", fmt.Errorf("connection reset by peer"), ClassTransient},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := classifyGeminiErr(c.err); got != c.want {
				t.Errorf("classifyGeminiErr(%v) = %s, want %s", c.err, got, c.want)
			}
		})
	}
}
