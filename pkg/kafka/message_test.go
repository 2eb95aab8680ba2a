package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/laurel/pkg/models"
)

func TestParseFeedMessage(t *testing.T) {
	data := []byte(`{
		"tenant_id": "t1",
		"taxonomy": "nationality",
		"supplier_id": "sup-1",
		"supplier_name": "Supplier One",
		"records": [
			{"local_id": "n1", "label": "Egyptian", "local_code": "EG"}
		]
	}`)

	msg, err := ParseFeedMessage(data)
	require.NoError(t, err)

	assert.Equal(t, "t1", msg.TenantID)
	assert.Equal(t, models.TaxonomyNationality, msg.Taxonomy)
	assert.Equal(t, "sup-1", msg.SupplierID)
	require.Len(t, msg.Records, 1)
	assert.Equal(t, "n1", msg.Records[0].LocalID)
}

func TestParseFeedMessageValidation(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "invalid json", data: `{not json`},
		{name: "missing tenant", data: `{"taxonomy": "nationality", "supplier_id": "sup-1"}`},
		{name: "unknown taxonomy", data: `{"tenant_id": "t1", "taxonomy": "planets", "supplier_id": "sup-1"}`},
		{name: "missing supplier", data: `{"tenant_id": "t1", "taxonomy": "nationality"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFeedMessage([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestHeadersRoundTrip(t *testing.T) {
	original := MessageHeaders{
		TenantID:    "t1",
		Taxonomy:    "nationality",
		SupplierID:  "sup-1",
		TraceParent: "00-abc-def-01",
	}

	extracted := ExtractHeaders(original.ToKafkaHeaders())
	assert.Equal(t, original, extracted)
}

func TestToKafkaHeadersSkipsEmptyValues(t *testing.T) {
	headers := (&MessageHeaders{TenantID: "t1"}).ToKafkaHeaders()
	require.Len(t, headers, 1)
	assert.Equal(t, "tenant_id", headers[0].Key)
}
