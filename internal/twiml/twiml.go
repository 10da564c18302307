// Package twiml renders Twilio Messaging responses.
package twiml

import (
	"encoding/xml"
	"fmt"
)

// ContentType is the media type Twilio expects for TwiML.
const ContentType = "text/xml; charset=utf-8"

type response struct {
	XMLName  xml.Name `xml:"Response"`
	Messages []string `xml:"Message"`
}

// MessageResponse renders body as a single <Message>. An empty body renders
// an empty <Response/>, which tells Twilio to send nothing.
func MessageResponse(body string) ([]byte, error) {
	r := response{}
	if body != "" {
		r.Messages = []string{body}
	}
	out, err := xml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("twiml: marshal: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// Empty renders a response with no messages.
func Empty() []byte {
	out, _ := MessageResponse("")
	return out
}
