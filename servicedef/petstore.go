// Package servicedef describes the HTTP contract of the pet store service: resource paths
// relative to the API prefix, and the JSON records exchanged with it.
package servicedef

import (
	"fmt"
	"net/url"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

const (
	PathPet             = "/pet"
	PathPetFindByStatus = "/pet/findByStatus"
	PathInventory       = "/store/inventory"
	PathOrder           = "/store/order"
	PathUser            = "/user"
	PathUserLogin       = "/user/login"
	PathUserLogout      = "/user/logout"
	uploadImageSegment  = "uploadImage"
)

func PetPath(id interface{}) string {
	return fmt.Sprintf("%s/%v", PathPet, id)
}

func PetUploadImagePath(id interface{}) string {
	return fmt.Sprintf("%s/%v/%s", PathPet, id, uploadImageSegment)
}

func OrderPath(id interface{}) string {
	return fmt.Sprintf("%s/%v", PathOrder, id)
}

func UserPath(username string) string {
	return PathUser + "/" + url.PathEscape(username)
}

const (
	PetAvailable = "available"
	PetPending   = "pending"
	PetSold      = "sold"

	OrderPlaced    = "placed"
	OrderApproved  = "approved"
	OrderDelivered = "delivered"
)

// PetStatuses are the valid values of Pet.Status.
var PetStatuses = []string{PetAvailable, PetPending, PetSold}

// OrderStatuses are the valid values of Order.Status.
var OrderStatuses = []string{OrderPlaced, OrderApproved, OrderDelivered}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Pet struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status,omitempty"`
	Category  *Category `json:"category,omitempty"`
	PhotoURLs []string  `json:"photoUrls,omitempty"`
	Tags      []Tag     `json:"tags,omitempty"`
}

type Order struct {
	ID       int64  `json:"id"`
	PetID    int64  `json:"petId"`
	Quantity int    `json:"quantity"`
	ShipDate string `json:"shipDate,omitempty"`
	Status   string `json:"status,omitempty"`
	Complete bool   `json:"complete"`
}

type User struct {
	ID         int64               `json:"id"`
	Username   string              `json:"username"`
	FirstName  string              `json:"firstName,omitempty"`
	LastName   string              `json:"lastName,omitempty"`
	Email      string              `json:"email,omitempty"`
	Password   string              `json:"password,omitempty"`
	Phone      string              `json:"phone,omitempty"`
	UserStatus ldvalue.OptionalInt `json:"userStatus,omitempty"`
}

// APIResponse is the body the service returns for messages and errors.
type APIResponse struct {
	Code    int    `json:"code,omitempty"`
	Type    string `json:"type,omitempty"`
	Message string `json:"message"`
}

// IsValidPetStatus reports whether s is one of PetStatuses.
func IsValidPetStatus(s string) bool {
	return contains(PetStatuses, s)
}

// IsValidOrderStatus reports whether s is one of OrderStatuses.
func IsValidOrderStatus(s string) bool {
	return contains(OrderStatuses, s)
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
