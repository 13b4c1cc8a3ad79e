package graph

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iliyamo/skillgraph/internal/service"
)

// Email is a normalised, syntactically valid address.
type Email string

func (Email) ImplementsGraphQLType(name string) bool { return name == "Email" }

func (e *Email) UnmarshalGraphQL(input interface{}) error {
	s, ok := input.(string)
	if !ok {
		return fmt.Errorf("Email must be a string, got %T", input)
	}
	s = service.NormalizeEmail(s)
	if !service.ValidEmail(s) {
		return fmt.Errorf("invalid email address")
	}
	*e = Email(s)
	return nil
}

func (e Email) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(e))
}

// PhoneNumber is an E.164 telephone number.
type PhoneNumber string

func (PhoneNumber) ImplementsGraphQLType(name string) bool { return name == "PhoneNumber" }

func (p *PhoneNumber) UnmarshalGraphQL(input interface{}) error {
	s, ok := input.(string)
	if !ok {
		return fmt.Errorf("PhoneNumber must be a string, got %T", input)
	}
	s = strings.TrimSpace(s)
	if !service.ValidPhone(s) {
		return fmt.Errorf("invalid phone number, expected E.164")
	}
	*p = PhoneNumber(s)
	return nil
}

func (p PhoneNumber) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(p))
}

// JSON is any JSON value.  Object literals arrive as map[string]interface{}.
type JSON struct {
	Value interface{}
}

func (JSON) ImplementsGraphQLType(name string) bool { return name == "JSON" }

func (j *JSON) UnmarshalGraphQL(input interface{}) error {
	j.Value = input
	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	return json.Marshal(j.Value)
}
