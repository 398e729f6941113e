package aws

import (
	"errors"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
)

// Session represents a session to AWS.
type Session struct {
	session *session.Session
}

// NewSession returns a session with the given credentials.
// If accessKeyID is blank then the SDK's default credential chain is used.
// The endpoint is optional and overrides the regional service endpoint.
func NewSession(accessKeyID, secretAccessKey, region, endpoint string) (*Session, error) {
	if region == "" {
		return nil, errors.New("aws region required")
	}

	// Failed calls surface to the caller immediately; the SDK retries by default.
	config := &aws.Config{
		Region:     aws.String(region),
		MaxRetries: aws.Int(0),
	}
	if accessKeyID != "" {
		config.Credentials = credentials.NewStaticCredentials(accessKeyID, secretAccessKey, "")
	}
	if endpoint != "" {
		config.Endpoint = aws.String(endpoint)
	}

	s, err := session.NewSession(config)
	if err != nil {
		return nil, err
	}
	return &Session{session: s}, nil
}
