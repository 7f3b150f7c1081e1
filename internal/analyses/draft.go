package analyses

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const (
	MinResumeBytes       = 1024
	MaxResumeBytes       = 10 * 1024 * 1024
	MinJobDescriptionLen = 10
)

const (
	mimePDF  = "application/pdf"
	mimeDOC  = "application/msword"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var allowedExtensions = map[string]bool{".pdf": true, ".doc": true, ".docx": true}

var allowedMediaTypes = map[string]bool{mimePDF: true, mimeDOC: true, mimeDOCX: true}

// UploadedResume is a résumé file received for a single request.
type UploadedResume struct {
	FileName  string
	MediaType string
	Data      []byte
}

// Size returns the payload length in bytes.
func (u *UploadedResume) Size() int {
	if u == nil {
		return 0
	}
	return len(u.Data)
}

// Validate checks presence, size bounds and accepted document types.
func (u *UploadedResume) Validate() error {
	if u == nil || (strings.TrimSpace(u.FileName) == "" && len(u.Data) == 0) {
		return validationError("resume", "a resume file is required")
	}
	if n := len(u.Data); n < MinResumeBytes || n > MaxResumeBytes {
		return validationError("resume", fmt.Sprintf("file size %d bytes is outside %d..%d", n, MinResumeBytes, MaxResumeBytes))
	}
	if !u.acceptedType() {
		return validationError("resume", "only PDF, DOC and DOCX files are accepted")
	}
	return nil
}

func (u *UploadedResume) acceptedType() bool {
	if allowedExtensions[strings.ToLower(filepath.Ext(u.FileName))] {
		return true
	}
	clean := strings.ToLower(strings.TrimSpace(strings.Split(u.MediaType, ";")[0]))
	return allowedMediaTypes[clean]
}

// Draft is the résumé and job description a caller has collected for one analysis.
// It is passed by value through a single request; nothing keeps it afterwards.
type Draft struct {
	Resume         *UploadedResume
	JobDescription string
}

// Validate runs every pre-flight check. The first failure is returned.
func (d Draft) Validate() error {
	if err := d.Resume.Validate(); err != nil {
		return err
	}
	return ValidateJobDescription(d.JobDescription)
}

// ValidateJobDescription requires at least MinJobDescriptionLen characters once trimmed.
func ValidateJobDescription(jd string) error {
	if utf8.RuneCountInString(strings.TrimSpace(jd)) < MinJobDescriptionLen {
		return validationError("jd", fmt.Sprintf("job description must be at least %d characters", MinJobDescriptionLen))
	}
	return nil
}
