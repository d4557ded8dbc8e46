// internal/provider/mpesa/callback.go
package mpesa

import (
	"encoding/json"

	"billing-service/internal/domain"
)

// ResultCodeSuccess is the gateway's sentinel for a successful payment.
const ResultCodeSuccess = 0

// CallbackEnvelope is the native shape of an STK callback delivery.
type CallbackEnvelope struct {
	Body struct {
		StkCallback *StkCallback `json:"stkCallback"`
	} `json:"Body"`
}

// StkCallback reports the final outcome of a previously initiated push.
type StkCallback struct {
	MerchantRequestID string            `json:"MerchantRequestID"`
	CheckoutRequestID string            `json:"CheckoutRequestID"`
	ResultCode        int               `json:"ResultCode"`
	ResultDesc        string            `json:"ResultDesc"`
	CallbackMetadata  *CallbackMetadata `json:"CallbackMetadata,omitempty"`
}

type CallbackMetadata struct {
	Item []MetadataItem `json:"Item"`
}

type MetadataItem struct {
	Name  string      `json:"Name"`
	Value interface{} `json:"Value"`
}

// ParseSTKCallback decodes a callback envelope. A payload that does not
// carry the expected Body.stkCallback structure yields ErrMalformedCallback.
func ParseSTKCallback(payload []byte) (*StkCallback, error) {
	var envelope CallbackEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, domain.ErrMalformedCallback
	}

	if envelope.Body.StkCallback == nil || envelope.Body.StkCallback.CheckoutRequestID == "" {
		return nil, domain.ErrMalformedCallback
	}

	return envelope.Body.StkCallback, nil
}

// Success reports whether the callback signals a completed payment.
func (c *StkCallback) Success() bool {
	return c.ResultCode == ResultCodeSuccess
}

// Metadata flattens the callback's item list into name -> value pairs.
// Returns nil when the gateway attached no metadata.
func (c *StkCallback) Metadata() map[string]interface{} {
	if c.CallbackMetadata == nil || len(c.CallbackMetadata.Item) == 0 {
		return nil
	}

	metadata := make(map[string]interface{}, len(c.CallbackMetadata.Item))
	for _, item := range c.CallbackMetadata.Item {
		metadata[item.Name] = item.Value
	}
	return metadata
}
