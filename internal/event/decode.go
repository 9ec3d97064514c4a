package event

import (
	"encoding/json"
	"fmt"

	"github.com/osse101/calsync/internal/domain"
)

// DecodePayload returns input as T. In-process events already carry T;
// payloads read back from the dead-letter file arrive as generic maps and
// are converted through JSON.
func DecodePayload[T any](input interface{}) (T, error) {
	if v, ok := input.(T); ok {
		return v, nil
	}
	if p, ok := input.(*T); ok && p != nil {
		return *p, nil
	}
	var result T
	data, err := json.Marshal(input)
	if err != nil {
		return result, err
	}
	return result, json.Unmarshal(data, &result)
}

// CalendarPayload extracts the payload of a calendar event
func CalendarPayload(evt Event) (domain.CalendarEventPayload, error) {
	payload, err := DecodePayload[domain.CalendarEventPayload](evt.Payload)
	if err != nil {
		return payload, fmt.Errorf("decode %s payload: %w", evt.Type, err)
	}
	return payload, nil
}
