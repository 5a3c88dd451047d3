package recognition

import (
	"encoding/json"
	"strings"
)

const defaultFailureDetail = "face not recognized"

// payload is the JSON object the recognizer prints as its final line.
type payload struct {
	Success  *bool   `json:"success"`
	Username *string `json:"username"`
	Error    *string `json:"error"`
}

// splitOutput returns the last non-empty line of out and every earlier
// non-empty line. The last line is the payload; the rest are logs.
func splitOutput(out string) (last string, logs []string) {
	lines := strings.Split(strings.ReplaceAll(out, "\r\n", "\n"), "\n")

	end := len(lines) - 1
	for end >= 0 && strings.TrimSpace(lines[end]) == "" {
		end--
	}
	if end < 0 {
		return "", nil
	}

	for _, l := range lines[:end] {
		if strings.TrimSpace(l) != "" {
			logs = append(logs, l)
		}
	}
	return strings.TrimSpace(lines[end]), logs
}

// parsePayload classifies the final output line.
func parsePayload(line string) Result {
	if line == "" {
		return Failure(KindParseError, "recognizer produced no output")
	}

	var p payload
	if err := json.Unmarshal([]byte(line), &p); err != nil {
		return Failure(KindParseError, "invalid result line: "+err.Error())
	}
	if p.Success == nil {
		return Failure(KindParseError, `result line has no "success" field`)
	}

	if *p.Success {
		if p.Username == nil || strings.TrimSpace(*p.Username) == "" {
			return Failure(KindParseError, "successful result without username")
		}
		return Success(strings.TrimSpace(*p.Username))
	}

	detail := defaultFailureDetail
	if p.Error != nil && strings.TrimSpace(*p.Error) != "" {
		detail = *p.Error
	}
	return Failure(KindRecognitionFailed, detail)
}
