// internal/domain/models.go
package domain

// StagedFile is an uploaded file held in the staging area until it has been
// forwarded to the object store.
type StagedFile struct {
	Path         string `json:"-"`
	OriginalName string `json:"originalName"`
	MimeType     string `json:"mimetype"`
	Size         int64  `json:"size"`
}

// UploadSuccess describes a file that reached the object store.
type UploadSuccess struct {
	OriginalName string `json:"originalName"`
	FileURL      string `json:"fileUrl"`
	StorageKey   string `json:"storageKey"`
	Size         int64  `json:"size"`
	MimeType     string `json:"mimetype"`
}

// UploadFailure describes a file the object store did not accept.
type UploadFailure struct {
	OriginalName string `json:"originalName"`
	Error        string `json:"error"`
}

// UploadOutcome is the result of a single file upload. Exactly one of
// Success or Failure is set.
type UploadOutcome struct {
	Success *UploadSuccess
	Failure *UploadFailure
}

// Succeeded reports whether the outcome is a success.
func (o UploadOutcome) Succeeded() bool {
	return o.Success != nil
}

// BatchResult aggregates the outcomes of one upload request.
type BatchResult struct {
	Successful     []UploadSuccess `json:"successful"`
	Failed         []UploadFailure `json:"failed,omitempty"`
	TotalProcessed int             `json:"totalProcessed"`
	SuccessCount   int             `json:"successCount"`
	FailureCount   int             `json:"failureCount"`
}

// NewBatchResult builds a result from outcomes, keeping their order.
func NewBatchResult(outcomes []UploadOutcome) BatchResult {
	result := BatchResult{
		Successful: make([]UploadSuccess, 0, len(outcomes)),
	}
	for _, o := range outcomes {
		switch {
		case o.Success != nil:
			result.Successful = append(result.Successful, *o.Success)
		case o.Failure != nil:
			result.Failed = append(result.Failed, *o.Failure)
		}
	}
	result.SuccessCount = len(result.Successful)
	result.FailureCount = len(result.Failed)
	result.TotalProcessed = result.SuccessCount + result.FailureCount
	return result
}

// AllSucceeded reports whether no file failed.
func (r BatchResult) AllSucceeded() bool {
	return r.FailureCount == 0
}

// DeletionResult is returned after an object was removed from the store.
type DeletionResult struct {
	Success bool   `json:"success"`
	Key     string `json:"key"`
}
