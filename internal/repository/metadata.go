package repository

import (
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// User metadata is a JSON object: a JSON column in MySQL, an embedded
// document in Mongo.  A nil map is stored as NULL or left out.

func encodeMetadata(m map[string]any) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return b, nil
}

func decodeMetadata(b []byte) (map[string]any, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return m, nil
}

func metadataDocument(m map[string]any) (bson.Raw, error) {
	if m == nil {
		return nil, nil
	}
	b, err := bson.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return bson.Raw(b), nil
}

// metadataFromDocument goes through relaxed extended JSON so nested
// documents come back as plain maps rather than bson.D.
func metadataFromDocument(raw bson.Raw) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	ext, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return decodeMetadata(ext)
}
