package mockstore

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/petstore-harness/petstore-contract-tests/framework/harness"
	"github.com/petstore-harness/petstore-contract-tests/servicedef"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// MaxOrderID is the largest order id the service accepts for deletion; larger ids are
// rejected as invalid input.
const MaxOrderID = 1000

// Config contains the parameters for NewServer.
type Config struct {
	// APIPrefix is the path all routes are mounted under. Defaults to harness.DefaultAPIPrefix.
	APIPrefix  string
	SessionTTL time.Duration
	// Logger receives one line per request. Nil means no request logging.
	Logger *logrus.Logger
}

// Server is the gin application serving a Store.
type Server struct {
	store    *Store
	sessions *sessions
	engine   *gin.Engine
}

func NewServer(store *Store, config Config) *Server {
	prefix := config.APIPrefix
	if prefix == "" {
		prefix = harness.DefaultAPIPrefix
	}
	s := &Server{
		store:    store,
		sessions: newSessions(config.SessionTTL),
		engine:   gin.New(),
	}
	s.engine.Use(gin.Recovery())
	if config.Logger != nil {
		s.engine.Use(requestLogger(config.Logger))
	}

	api := s.engine.Group(prefix)
	api.POST("/pet", s.addPet)
	api.PUT("/pet", s.updatePet)
	api.GET("/pet/findByStatus", s.findPetsByStatus)
	api.GET("/pet/:petId", s.getPetByID)
	api.DELETE("/pet/:petId", s.deletePet)
	api.POST("/pet/:petId/uploadImage", s.uploadImage)

	api.GET("/store/inventory", s.getInventory)
	api.POST("/store/order", s.placeOrder)
	api.GET("/store/order/:orderId", s.getOrderByID)
	api.DELETE("/store/order/:orderId", s.deleteOrder)

	api.POST("/user", s.createUser)
	api.GET("/user/login", s.loginUser)
	api.GET("/user/logout", s.logoutUser)
	api.GET("/user/:username", s.getUserByName)
	api.PUT("/user/:username", s.updateUser)
	api.DELETE("/user/:username", s.deleteUser)

	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Info("request")
	}
}

func respondMessage(c *gin.Context, status int, format string, args ...interface{}) {
	kind := "unknown"
	if status >= 400 {
		kind = "error"
	}
	c.JSON(status, servicedef.APIResponse{Code: status, Type: kind, Message: fmt.Sprintf(format, args...)})
}

// readJSON reads the request body in generic form. Invalid JSON yields a null value, which
// fails every field rule.
func readJSON(c *gin.Context) (ldvalue.Value, []byte, bool) {
	raw, err := c.GetRawData()
	if err != nil {
		respondMessage(c, http.StatusBadRequest, "unreadable body: %s", err)
		return ldvalue.Null(), nil, false
	}
	return ldvalue.Parse(raw), raw, true
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid ID supplied")
		return 0, false
	}
	return id, true
}

func (s *Server) decodePet(c *gin.Context) (servicedef.Pet, bool) {
	var pet servicedef.Pet
	body, raw, ok := readJSON(c)
	if !ok {
		return pet, false
	}
	if err := validatePetFields(body); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid input: %s", err)
		return pet, false
	}
	if err := json.Unmarshal(raw, &pet); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid input: %s", err)
		return pet, false
	}
	return pet, true
}

// Post /pet
func (s *Server) addPet(c *gin.Context) {
	pet, ok := s.decodePet(c)
	if !ok {
		return
	}
	if pet.Status != "" && !servicedef.IsValidPetStatus(pet.Status) {
		respondMessage(c, http.StatusBadRequest, "Invalid input: unknown status %q", pet.Status)
		return
	}
	s.store.PutPet(pet)
	c.JSON(http.StatusOK, pet)
}

// Put /pet
func (s *Server) updatePet(c *gin.Context) {
	pet, ok := s.decodePet(c)
	if !ok {
		return
	}
	if _, exists := s.store.GetPet(pet.ID); !exists {
		respondMessage(c, http.StatusNotFound, "Pet not found")
		return
	}
	if pet.Status != "" && !servicedef.IsValidPetStatus(pet.Status) {
		respondMessage(c, http.StatusMethodNotAllowed, "Validation exception: unknown status %q", pet.Status)
		return
	}
	s.store.UpdatePet(pet)
	c.JSON(http.StatusOK, pet)
}

// Get /pet/findByStatus
func (s *Server) findPetsByStatus(c *gin.Context) {
	var statuses []string
	for _, v := range c.QueryArray("status") {
		statuses = append(statuses, strings.Split(v, ",")...)
	}
	if len(statuses) == 0 {
		statuses = []string{servicedef.PetAvailable}
	}
	for _, st := range statuses {
		if !servicedef.IsValidPetStatus(st) {
			respondMessage(c, http.StatusBadRequest, "Invalid status value")
			return
		}
	}
	c.JSON(http.StatusOK, s.store.FindPetsByStatus(statuses...))
}

// Get /pet/:petId
func (s *Server) getPetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "petId")
	if !ok {
		return
	}
	pet, exists := s.store.GetPet(id)
	if !exists {
		respondMessage(c, http.StatusNotFound, "Pet not found")
		return
	}
	c.JSON(http.StatusOK, pet)
}

// Delete /pet/:petId
func (s *Server) deletePet(c *gin.Context) {
	id, ok := parseIDParam(c, "petId")
	if !ok {
		return
	}
	if !s.store.DeletePet(id) {
		respondMessage(c, http.StatusNotFound, "Pet not found")
		return
	}
	respondMessage(c, http.StatusOK, "Pet deleted")
}

// Post /pet/:petId/uploadImage
func (s *Server) uploadImage(c *gin.Context) {
	id, ok := parseIDParam(c, "petId")
	if !ok {
		return
	}
	if _, exists := s.store.GetPet(id); !exists {
		respondMessage(c, http.StatusNotFound, "Pet not found")
		return
	}

	var fileName string
	var size int64
	switch c.ContentType() {
	case "multipart/form-data":
		header, err := c.FormFile(harness.DefaultMultipartName)
		if err != nil {
			respondMessage(c, http.StatusBadRequest, "No file uploaded: %s", err)
			return
		}
		fileName, size = header.Filename, header.Size
	case "application/octet-stream":
		raw, err := c.GetRawData()
		if err != nil || len(raw) == 0 {
			respondMessage(c, http.StatusBadRequest, "No file uploaded")
			return
		}
		fileName, size = c.DefaultQuery("additionalMetadata", "image"), int64(len(raw))
	default:
		respondMessage(c, http.StatusUnsupportedMediaType, "Unsupported media type %q", c.ContentType())
		return
	}
	s.store.AddPhoto(id, fmt.Sprintf("/images/%d/%s", id, fileName))
	respondMessage(c, http.StatusOK, "File uploaded to ./%s, %d bytes", fileName, size)
}

// Get /store/inventory
func (s *Server) getInventory(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Inventory())
}

// Post /store/order
func (s *Server) placeOrder(c *gin.Context) {
	body, raw, ok := readJSON(c)
	if !ok {
		return
	}
	if err := validateOrder(body); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid Order: %s", err)
		return
	}
	var order servicedef.Order
	if err := json.Unmarshal(raw, &order); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid Order: %s", err)
		return
	}
	if order.Status == "" {
		order.Status = servicedef.OrderPlaced
	}
	s.store.PutOrder(order)
	c.JSON(http.StatusOK, order)
}

// Get /store/order/:orderId
func (s *Server) getOrderByID(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	order, exists := s.store.GetOrder(id)
	if !exists {
		respondMessage(c, http.StatusNotFound, "Order not found")
		return
	}
	c.JSON(http.StatusOK, order)
}

// Delete /store/order/:orderId
func (s *Server) deleteOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "orderId")
	if !ok {
		return
	}
	if id > MaxOrderID {
		respondMessage(c, http.StatusBadRequest, "Invalid ID supplied")
		return
	}
	if !s.store.DeleteOrder(id) {
		respondMessage(c, http.StatusNotFound, "Order not found")
		return
	}
	respondMessage(c, http.StatusOK, "Order deleted")
}

func (s *Server) decodeUser(c *gin.Context) (servicedef.User, bool) {
	var user servicedef.User
	body, raw, ok := readJSON(c)
	if !ok {
		return user, false
	}
	if err := validateUser(body); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid user: %s", err)
		return user, false
	}
	if err := json.Unmarshal(raw, &user); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid user: %s", err)
		return user, false
	}
	return user, true
}

// Post /user
func (s *Server) createUser(c *gin.Context) {
	user, ok := s.decodeUser(c)
	if !ok {
		return
	}
	s.store.PutUser(user)
	c.JSON(http.StatusOK, user)
}

// Get /user/login
func (s *Server) loginUser(c *gin.Context) {
	username, password := c.Query("username"), c.Query("password")
	user, exists := s.store.GetUser(username)
	if username == "" || !exists || user.Password != password {
		respondMessage(c, http.StatusBadRequest, "Invalid username/password supplied")
		return
	}
	token, expires, err := s.sessions.issue(user.Username, time.Now())
	if err != nil {
		respondMessage(c, http.StatusInternalServerError, "could not start session: %s", err)
		return
	}
	c.Header("X-Rate-Limit", "5000")
	c.Header("X-Expires-After", expires.UTC().Format(time.RFC3339))
	c.String(http.StatusOK, sessionPrefix+token)
}

// Get /user/logout
func (s *Server) logoutUser(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if token != "" {
		if username, err := s.sessions.resolve(token); err == nil {
			s.sessions.end(token)
			respondMessage(c, http.StatusOK, "User %s logged out", username)
			return
		}
	}
	respondMessage(c, http.StatusOK, "User logged out")
}

func usernameParam(c *gin.Context) (string, bool) {
	username := c.Param("username")
	if !isValidUsername(username) {
		respondMessage(c, http.StatusBadRequest, "Invalid username supplied")
		return "", false
	}
	return username, true
}

// Get /user/:username
func (s *Server) getUserByName(c *gin.Context) {
	username, ok := usernameParam(c)
	if !ok {
		return
	}
	user, exists := s.store.GetUser(username)
	if !exists {
		respondMessage(c, http.StatusNotFound, "User not found")
		return
	}
	c.JSON(http.StatusOK, user)
}

// Put /user/:username
func (s *Server) updateUser(c *gin.Context) {
	username, ok := usernameParam(c)
	if !ok {
		return
	}
	user, ok := s.decodeUser(c)
	if !ok {
		return
	}
	if !s.store.UpdateUser(username, user) {
		respondMessage(c, http.StatusNotFound, "User not found")
		return
	}
	c.JSON(http.StatusOK, user)
}

// Delete /user/:username
func (s *Server) deleteUser(c *gin.Context) {
	username, ok := usernameParam(c)
	if !ok {
		return
	}
	if !s.store.DeleteUser(username) {
		respondMessage(c, http.StatusNotFound, "User not found")
		return
	}
	respondMessage(c, http.StatusOK, "User deleted")
}
