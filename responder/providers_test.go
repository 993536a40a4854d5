package responder

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Provider_Descriptors_Require_API_Key(t *testing.T) {
	req := require.New(t)

	req.Nil(OpenAIDescriptors(""))
	req.Nil(OpenAIDescriptors("   "))
	req.Nil(AnthropicDescriptors(""))

	openAI := OpenAIDescriptors("sk-test")
	req.Len(openAI, 4)
	for _, d := range openAI {
		req.NotNil(d.Capability)
		req.NotEmpty(d.Name)
	}

	claude := AnthropicDescriptors("sk-ant-test")
	req.Len(claude, 1)
	req.Equal("Claude", claude[0].Name)
}
