// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ArticleStatus is the terminal state of a single article retrieval.
type ArticleStatus string

const (
	StatusSuccess              ArticleStatus = "success"
	StatusLicensingRestriction ArticleStatus = "licensing_restriction"
	StatusNotFound             ArticleStatus = "not_found"
	StatusError                ArticleStatus = "error"
)

// LicenseType classifies the reuse terms of an article.
type LicenseType string

const (
	LicenseNone          LicenseType = ""
	LicenseCommercial    LicenseType = "commercial"
	LicenseNonCommercial LicenseType = "non_commercial"
)

// ArticleResponse is the outcome of retrieving one PMC article. Instances are
// built through NewSuccess, NewLicensingRestriction, NewNotFound and
// NewFailure, which validate the field combination for the status; the zero
// value is not a valid response.
type ArticleResponse struct {
	Status      ArticleStatus
	Content     *string
	Message     string
	PMCID       string
	LicenseType LicenseType
	S3Path      string
	Source      string
}

// NewSuccess returns a response carrying processed article text.
func NewSuccess(pmcid, content, s3Path, source, message string) ArticleResponse {
	return mustValid(ArticleResponse{
		Status:      StatusSuccess,
		Content:     &content,
		Message:     message,
		PMCID:       pmcid,
		LicenseType: LicenseCommercial,
		S3Path:      s3Path,
		Source:      source,
	})
}

// NewLicensingRestriction returns a response for an article that exists but
// whose license does not allow the content to be returned.
func NewLicensingRestriction(pmcid, s3Path, source, message string) ArticleResponse {
	return mustValid(ArticleResponse{
		Status:      StatusLicensingRestriction,
		Message:     message,
		PMCID:       pmcid,
		LicenseType: LicenseNonCommercial,
		S3Path:      s3Path,
		Source:      source,
	})
}

// NewNotFound returns a response for a well-formed identifier with no object.
func NewNotFound(pmcid, s3Path, source, message string) ArticleResponse {
	return mustValid(ArticleResponse{
		Status:  StatusNotFound,
		Message: message,
		PMCID:   pmcid,
		S3Path:  s3Path,
		Source:  source,
	})
}

// NewFailure returns an error response. s3Path may be empty.
func NewFailure(pmcid, s3Path, source, message string) ArticleResponse {
	return mustValid(ArticleResponse{
		Status:  StatusError,
		Message: message,
		PMCID:   pmcid,
		S3Path:  s3Path,
		Source:  source,
	})
}

// mustValid panics when r violates the response invariants. Every
// constructor goes through here, so a panic is a bug in the caller.
func mustValid(r ArticleResponse) ArticleResponse {
	if err := r.Validate(); err != nil {
		panic(fmt.Sprintf("invalid ArticleResponse: %v", err))
	}
	return r
}

// Validate reports whether the field combination is legal for the status.
func (r ArticleResponse) Validate() error {
	switch r.Status {
	case StatusSuccess, StatusLicensingRestriction, StatusNotFound, StatusError:
	default:
		return fmt.Errorf("invalid status %q", r.Status)
	}

	switch r.LicenseType {
	case LicenseNone, LicenseCommercial, LicenseNonCommercial:
	default:
		return fmt.Errorf("invalid license_type %q", r.LicenseType)
	}

	if strings.TrimSpace(r.Message) == "" {
		return fmt.Errorf("message must be a non-empty string")
	}

	if strings.TrimSpace(r.PMCID) == "" && r.Status != StatusError && r.Status != StatusNotFound {
		return fmt.Errorf("pmcid cannot be empty for %s responses", r.Status)
	}

	switch r.Status {
	case StatusSuccess:
		if r.Content == nil {
			return fmt.Errorf("success responses must include content")
		}
		if r.LicenseType != LicenseCommercial {
			return fmt.Errorf("success responses must have commercial license_type")
		}
		if r.S3Path == "" {
			return fmt.Errorf("success responses must include s3_path")
		}
	case StatusLicensingRestriction:
		if r.Content != nil {
			return fmt.Errorf("licensing restriction responses must not include content")
		}
		if r.LicenseType != LicenseNonCommercial {
			return fmt.Errorf("licensing restriction responses must have non_commercial license_type")
		}
		if r.S3Path == "" {
			return fmt.Errorf("licensing restriction responses must include s3_path")
		}
	case StatusNotFound, StatusError:
		if r.Content != nil {
			return fmt.Errorf("%s responses must not include content", r.Status)
		}
		if r.LicenseType != LicenseNone {
			return fmt.Errorf("%s responses must not carry a license_type", r.Status)
		}
	}
	return nil
}

// articleResponseJSON is the wire form. Absent values serialize as null;
// text and source appear only when set.
type articleResponseJSON struct {
	Status      ArticleStatus `json:"status"`
	Content     *string       `json:"content"`
	Message     string        `json:"message"`
	PMCID       *string       `json:"pmcid"`
	LicenseType *LicenseType  `json:"license_type"`
	S3Path      *string       `json:"s3_path"`
	Text        *string       `json:"text,omitempty"`
	Source      *string       `json:"source,omitempty"`
}

// MarshalJSON renders the response with content duplicated under "text" and
// the caller-supplied citation URL under "source".
func (r ArticleResponse) MarshalJSON() ([]byte, error) {
	out := articleResponseJSON{
		Status:  r.Status,
		Content: r.Content,
		Message: r.Message,
		PMCID:   optional(r.PMCID),
		S3Path:  optional(r.S3Path),
		Text:    r.Content,
		Source:  optional(r.Source),
	}
	if r.LicenseType != LicenseNone {
		lt := r.LicenseType
		out.LicenseType = &lt
	}
	return json.Marshal(out)
}

// Text returns the content or an empty string when the response has none.
func (r ArticleResponse) Text() string {
	if r.Content == nil {
		return ""
	}
	return *r.Content
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
