package petstoretests

import (
	"strconv"

	"github.com/petstore-harness/petstore-contract-tests/framework/fixture"
	"github.com/petstore-harness/petstore-contract-tests/servicedef"
)

func petRef(id int64) fixture.Ref {
	return fixture.Ref{Collection: servicedef.PathPet, Key: strconv.FormatInt(id, 10)}
}

func orderRef(id int64) fixture.Ref {
	return fixture.Ref{Collection: servicedef.PathOrder, Key: strconv.FormatInt(id, 10)}
}

func userRef(username string) fixture.Ref {
	return fixture.Ref{Collection: servicedef.PathUser, Key: username}
}

func petExists(id int64, name string) fixture.Fixture {
	return fixture.Present(petRef(id), servicedef.Pet{ID: id, Name: name, Status: servicedef.PetAvailable})
}

func orderExists(id int64) fixture.Fixture {
	return fixture.Present(orderRef(id), servicedef.Order{
		ID:       id,
		PetID:    198772,
		Quantity: 7,
		ShipDate: "2024-10-10T12:00:00.000Z",
		Status:   servicedef.OrderPlaced,
		Complete: true,
	})
}

func testUser(username string) servicedef.User {
	return servicedef.User{
		ID:        1,
		Username:  username,
		FirstName: "John",
		LastName:  "Doe",
		Email:     "johndoe@example.com",
		Password:  "password123",
		Phone:     "123456789",
	}
}

func userExists(username string) fixture.Fixture {
	return fixture.Present(userRef(username), testUser(username))
}
