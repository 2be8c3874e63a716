package gemini

import "encoding/json"

// jsonMarshal renders function-call arguments the way OpenAI does, as a
// JSON object string, so both adapters surface identical ToolCall shapes.
func jsonMarshal(args map[string]any) (string, error) {
	if len(args) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return "{}", err
	}
	return string(data), nil
}
