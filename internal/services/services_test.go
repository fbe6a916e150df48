package services

import (
	"context"
	"fmt"
)

// fakeLLM scripts responses for service tests. When the scripted list runs
// out it falls back to defaultResp.
type fakeLLM struct {
	responses   []string
	defaultResp string
	max         int
	err         error
	calls       []string
}

func (f *fakeLLM) GenerateStructured(_ context.Context, _, user string) (string, error) {
	f.calls = append(f.calls, user)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) > 0 {
		resp := f.responses[0]
		f.responses = f.responses[1:]
		return resp, nil
	}
	if f.defaultResp != "" {
		return f.defaultResp, nil
	}
	return "", fmt.Errorf("no scripted response for call %d", len(f.calls))
}

func (f *fakeLLM) MaxTokens() int { return f.max }
