package petstoretests

import (
	"github.com/petstore-harness/petstore-contract-tests/framework/expect"
	"github.com/petstore-harness/petstore-contract-tests/framework/harness"
	"github.com/petstore-harness/petstore-contract-tests/servicedef"
)

// Statuses the service has been observed to return for requests whose documented outcome
// is ambiguous. Both can be overridden in configuration.
var (
	DefaultDeleteNotFoundStatuses = []int{404, 400, 204, 200}
	DefaultUploadMissingStatuses  = []int{404, 400, 415}
	DefaultUploadExistingStatuses = []int{200, 415}
)

// Options adjusts the catalogue to the service being tested.
type Options struct {
	// DeleteNotFoundStatuses are accepted when deleting a resource that does not exist.
	DeleteNotFoundStatuses []int
	// UploadMissingStatuses are accepted when uploading an image for a pet that does not
	// exist.
	UploadMissingStatuses []int
	// Image is the file sent in upload scenarios. Defaults to servicedef.SampleImage.
	Image *harness.MultipartFile
}

func (o Options) deleteNotFound() expect.StatusPolicy {
	return statusSetOrDefault(o.DeleteNotFoundStatuses, DefaultDeleteNotFoundStatuses)
}

func (o Options) uploadMissing() expect.StatusPolicy {
	return statusSetOrDefault(o.UploadMissingStatuses, DefaultUploadMissingStatuses)
}

func (o Options) image() *harness.MultipartFile {
	if o.Image != nil {
		return o.Image
	}
	return &harness.MultipartFile{
		FieldName:   harness.DefaultMultipartName,
		FileName:    servicedef.SampleImageName,
		ContentType: "image/jpeg",
		Content:     servicedef.SampleImage,
	}
}

func statusSetOrDefault(statuses, defaults []int) expect.StatusPolicy {
	if len(statuses) == 0 {
		return expect.OneOf(defaults...)
	}
	return expect.OneOf(statuses...)
}
