package llm

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"slices"

	"github.com/joseph-ayodele/certificates-processor/constants"
)

// MaxAttachmentBytes caps documents sent inline to a provider.
const MaxAttachmentBytes = 20 << 20

// Attachment is a certificate file sent to the model next to the prompt.
type Attachment struct {
	Path     string
	Format   constants.Format
	MIMEType string
	Data     []byte
}

func (a *Attachment) Base64() string {
	return base64.StdEncoding.EncodeToString(a.Data)
}

func (a *Attachment) DataURL() string {
	return "data:" + a.MIMEType + ";base64," + a.Base64()
}

// LoadAttachment reads req.FilePath when attaching is enabled and its format is one of accepted.
// It returns nil when nothing should be attached.
func LoadAttachment(req ExtractRequest, accepted ...constants.Format) (*Attachment, error) {
	if !req.AttachDocument || req.FilePath == "" {
		return nil, nil
	}
	format := constants.MapExtToFormat(filepath.Ext(req.FilePath))
	if !slices.Contains(accepted, format) {
		return nil, nil
	}
	st, err := os.Stat(req.FilePath)
	if err != nil {
		return nil, err
	}
	if st.Size() > MaxAttachmentBytes {
		return nil, nil
	}
	b, err := os.ReadFile(req.FilePath)
	if err != nil {
		return nil, err
	}
	mt := "application/pdf"
	if format == constants.IMAGE {
		mt = constants.ImageMIMEType(filepath.Ext(req.FilePath))
	}
	return &Attachment{Path: req.FilePath, Format: format, MIMEType: mt, Data: b}, nil
}
