package llm

import (
	"context"

	"github.com/joseph-ayodele/certificates-processor/internal/certificate"
)

type ExtractRequest struct {
	Text         string
	FilenameHint string
	FolderHint   string

	// FilePath is the certificate on disk; providers attach it when AttachDocument is set and
	// the format is one they accept.
	FilePath       string
	AttachDocument bool
}

// CertificateInference turns extracted text into a certificate record. The raw JSON returned
// by the model is passed back for logging and debugging.
type CertificateInference interface {
	Infer(ctx context.Context, req ExtractRequest) (certificate.Record, []byte, error)
}
