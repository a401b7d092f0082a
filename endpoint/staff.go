package endpoint

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/clinicconnect/clinic-api/middleware"
	"github.com/clinicconnect/clinic-api/model"
	"github.com/clinicconnect/clinic-api/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Sentinel errors for staff update operations
var (
	ErrStaffEmailAlreadyExists = errors.New("email already exists")
)

type UpdateStaffRequest struct {
	Name     string `json:"name" example:"Jane Front Desk"`
	Email    string `json:"email" example:"frontdesk@clinic.com"`
	Password string `json:"password" example:"newpassword123"`
}

// validateUpdateRequest checks whether at least one field is provided for update.
func validateUpdateRequest(req *UpdateStaffRequest) bool {
	return req.Name != "" || req.Email != "" || req.Password != ""
}

// validateAndUpdateEmail checks email uniqueness and updates the staff model if valid.
// Returns an error without sending HTTP responses, letting the caller handle the response.
func validateAndUpdateEmail(db *gorm.DB, staff *model.Staff, newEmail string) error {
	if newEmail == "" || newEmail == staff.Email {
		return nil
	}
	exists, err := staffEmailExists(db, newEmail, staff.ID)
	if err != nil {
		return fmt.Errorf("failed to validate email uniqueness: %w", err)
	}
	if exists {
		return ErrStaffEmailAlreadyExists
	}
	staff.Email = newEmail
	return nil
}

// hashStaffPassword generates a fresh salt and hashes the provided password,
// updating the staff model in place.
func hashStaffPassword(staff *model.Staff, plainPassword string) error {
	salt, err := util.GenerateSalt()
	if err != nil {
		return fmt.Errorf("failed to generate password salt: %w", err)
	}
	staff.Password = util.HashPasswordWithSalt(plainPassword, salt)
	staff.PasswordSalt = salt
	return nil
}

// updateStaffFields applies the changes from an UpdateStaffRequest to a staff model,
// handling email uniqueness checks, password hashing, and returning whether password changed.
func updateStaffFields(db *gorm.DB, staff *model.Staff, req *UpdateStaffRequest) (passwordChanged bool, err error) {
	if err := validateAndUpdateEmail(db, staff, req.Email); err != nil {
		return false, err
	}

	if req.Name != "" {
		staff.Name = util.NormalizeName(req.Name)
	}

	if req.Password != "" {
		if err := hashStaffPassword(staff, req.Password); err != nil {
			return false, err
		}
		passwordChanged = true
	}

	return passwordChanged, nil
}

// invalidateStaffSessions removes session records from both DB and Redis for a staff account.
func invalidateStaffSessions(db *gorm.DB, staffID uint) {
	_ = db.Where("staff_id = ?", staffID).Delete(&model.Session{}).Error
	_ = util.InvalidateStaffSessions(staffID)
}

// performStaffUpdate updates a staff account, handling error cases and session invalidation.
func performStaffUpdate(c *gin.Context, db *gorm.DB, staff *model.Staff, req *UpdateStaffRequest) bool {
	passwordChanged, err := updateStaffFields(db, staff, req)
	if err != nil {
		if errors.Is(err, ErrStaffEmailAlreadyExists) {
			util.CallUserError(c, util.APIErrorParams{Msg: "Email already exists", Err: err})
		} else {
			util.CallServerError(c, util.APIErrorParams{Msg: "Failed to update staff fields", Err: err})
		}
		return false
	}

	if err := db.Save(staff).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to update staff account", Err: err})
		return false
	}

	// A password change logs the account out everywhere.
	if passwordChanged {
		invalidateStaffSessions(db, staff.ID)
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Staff account updated", Data: staff})
	return true
}

// UpdateCurrentStaff godoc
// @Summary      Update current staff profile
// @Description  Update the authenticated staff account's name, email, and/or password
// @Tags         Staff
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        request body UpdateStaffRequest true "Update details"
// @Success      200 {object} util.APIResponse "Update successful"
// @Failure      400 {object} util.APIResponse "Invalid request or email already exists"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /staff [patch]
func UpdateCurrentStaff(c *gin.Context) {
	var req UpdateStaffRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}

	if !validateUpdateRequest(&req) {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "At least one field (name, email, or password) must be provided",
			Err: fmt.Errorf("no fields to update"),
		})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	staffID, ok := middleware.GetStaffID(c)
	if !ok {
		util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "Staff not authenticated", Err: fmt.Errorf("staff id not found in context")})
		return
	}

	staff, ok := fetchStaffByID(c, db, staffID)
	if !ok {
		return
	}

	performStaffUpdate(c, db, staff, &req)
}

// ListStaff godoc
// @Summary      List staff accounts
// @Description  Get a paginated list of staff accounts using cursor-based pagination
// @Tags         Staff
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        limit query int false "Limit number of results (default 10, max 100)"
// @Param        cursor query int false "Cursor for pagination (staff ID)"
// @Param        keyword query string false "Search keyword for name or email"
// @Success      200 {object} util.APIResponse{data=object} "Staff retrieved with cursor pagination"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /staff [get]
func ListStaff(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	limit, cursor, offset := parsePaginationParams(c)
	keyword := c.Query("keyword")

	query := db.Model(&model.Staff{})
	filterClause, filterArgs := buildKeywordFilter(keyword)
	if filterClause != "" {
		query = query.Where(filterClause, filterArgs...)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to count staff", Err: err})
		return
	}

	// Fetch one extra row to detect whether more pages exist.
	query = applyPaginationQuery(query, cursor, offset)
	var staff []model.Staff
	if err := query.Order("id ASC").Limit(limit + 1).Find(&staff).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve staff", Err: err})
		return
	}

	hasMore := len(staff) > limit
	if hasMore {
		staff = staff[:limit]
	}

	var nextCursor *uint
	if hasMore {
		lastID := staff[len(staff)-1].ID
		nextCursor = &lastID
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Staff retrieved",
		Data: map[string]interface{}{
			"staff":         staff,
			"total":         total,
			"total_fetched": len(staff),
			"has_more":      hasMore,
			"next_cursor":   nextCursor,
		},
	})
}

type CreateStaffRequest struct {
	Name     string `json:"name" binding:"required" example:"Jane Front Desk"`
	Email    string `json:"email" binding:"required,email" example:"frontdesk@clinic.com"`
	Password string `json:"password" binding:"required,min=8" example:"password123"`
	Role     string `json:"role" binding:"required" example:"receptionist"`
	DoctorID uint   `json:"doctor_id,omitempty" example:"1"`
}

// CreateStaff godoc
// @Summary      Create a staff account
// @Description  Register a receptionist or doctor account for the reception console
// @Tags         Staff
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        request body CreateStaffRequest true "Staff account details"
// @Success      201 {object} util.APIResponse{data=model.Staff} "Staff account created"
// @Failure      400 {object} util.APIResponse "Invalid request or email already exists"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /staff [post]
func CreateStaff(c *gin.Context) {
	var req CreateStaffRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}

	if req.Role != model.RoleReceptionist && req.Role != model.RoleDoctor {
		util.CallUserError(c, util.APIErrorParams{
			Msg:    "Invalid staff role",
			Err:    fmt.Errorf("unknown role %q", req.Role),
			Fields: map[string]string{"role": "role must be receptionist or doctor"},
		})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	exists, err := staffEmailExists(db, req.Email, 0)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to validate email uniqueness", Err: err})
		return
	}
	if exists {
		util.CallUserError(c, util.APIErrorParams{Msg: "Email already exists", Err: ErrStaffEmailAlreadyExists})
		return
	}

	staff := model.Staff{
		Name:     util.NormalizeName(req.Name),
		Email:    req.Email,
		Role:     req.Role,
		DoctorID: req.DoctorID,
	}
	if err := hashStaffPassword(&staff, req.Password); err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to hash password", Err: err})
		return
	}

	if err := db.Create(&staff).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to create staff account", Err: err})
		return
	}

	util.CallSuccessCreated(c, util.APISuccessParams{Msg: "Staff account created", Data: staff})
}

// staffEmailExists checks whether an email is taken in the staff table excluding a given ID.
func staffEmailExists(db *gorm.DB, email string, excludeID uint) (bool, error) {
	var count int64
	if err := db.Model(&model.Staff{}).Where("email = ? AND id != ?", email, excludeID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// parsePaginationParams extracts and validates limit, cursor, and offset query parameters.
func parsePaginationParams(c *gin.Context) (limit int, cursor uint, offset int) {
	limit = parsePositiveInt(c.Query("limit"), 10, 100)
	cursor = parseUintQuery(c, "cursor")
	offset = parsePositiveInt(c.Query("offset"), 0, 0)
	return limit, cursor, offset
}

// parsePositiveInt parses a positive integer from a query value returning a default
// when the value is missing or invalid. If max > 0 it caps the returned value.
func parsePositiveInt(q string, defaultVal, max int) int {
	if q == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(q)
	if err != nil || v <= 0 {
		return defaultVal
	}
	if max > 0 && v > max {
		return max
	}
	return v
}

// parseUintQuery parses an unsigned integer query parameter and returns 0 on error.
// A zero value is treated as missing since cursor pagination requires positive IDs.
func parseUintQuery(c *gin.Context, name string) uint {
	s := c.Query(name)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil || v == 0 {
		return 0
	}
	return uint(v)
}

// fetchStaffByID retrieves a staff account by ID, sending the error response itself.
func fetchStaffByID(c *gin.Context, db *gorm.DB, staffID uint) (*model.Staff, bool) {
	var staff model.Staff
	if err := db.First(&staff, staffID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Staff not found", Err: err})
			return nil, false
		}
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve staff", Err: err})
		return nil, false
	}
	return &staff, true
}

// applyPaginationQuery applies cursor or offset-based pagination to a query.
func applyPaginationQuery(query *gorm.DB, cursor uint, offset int) *gorm.DB {
	if cursor > 0 {
		return query.Where("id > ?", cursor)
	}
	if offset > 0 {
		return query.Offset(offset)
	}
	return query
}

// buildKeywordFilter returns the keyword filter string for search queries.
func buildKeywordFilter(keyword string) (string, []interface{}) {
	if keyword != "" {
		kw := "%" + keyword + "%"
		return "name LIKE ? OR email LIKE ?", []interface{}{kw, kw}
	}
	return "", nil
}

// GetStaffInfo godoc
// @Summary      Get staff account info
// @Description  Retrieve a staff account by ID
// @Tags         Staff
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Staff ID"
// @Success      200 {object} util.APIResponse "Staff retrieved"
// @Failure      400 {object} util.APIResponse "Invalid staff id"
// @Failure      404 {object} util.APIResponse "Staff not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /staff/{id} [get]
func GetStaffInfo(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	staff, ok := fetchStaffByID(c, db, id)
	if !ok {
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Staff retrieved", Data: staff})
}

// UpdateStaffByID godoc
// @Summary      Update another staff account
// @Description  Update a staff account's name, email, and password by ID
// @Tags         Staff
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Staff ID"
// @Param        request body UpdateStaffRequest true "Update details"
// @Success      200 {object} util.APIResponse "Update successful"
// @Failure      400 {object} util.APIResponse "Invalid request or email already exists"
// @Failure      404 {object} util.APIResponse "Staff not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /staff/{id} [patch]
func UpdateStaffByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateStaffRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}
	if !validateUpdateRequest(&req) {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "At least one field (name, email, or password) must be provided",
			Err: fmt.Errorf("no fields to update"),
		})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	staff, ok := fetchStaffByID(c, db, id)
	if !ok {
		return
	}

	performStaffUpdate(c, db, staff, &req)
}

// deleteStaffWithSessions deletes a staff account and all its sessions atomically.
func deleteStaffWithSessions(db *gorm.DB, staffID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		staff := &model.Staff{}
		if err := tx.First(staff, staffID).Error; err != nil {
			return err
		}
		if err := tx.Where("staff_id = ?", staffID).Delete(&model.Session{}).Error; err != nil {
			return err
		}
		return tx.Delete(staff).Error
	})
}

// DeleteStaff godoc
// @Summary      Delete a staff account
// @Description  Soft-delete a staff account and invalidate all of its sessions
// @Tags         Staff
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Staff ID"
// @Success      200 {object} util.APIResponse "Staff deleted"
// @Failure      400 {object} util.APIResponse "Invalid staff id"
// @Failure      404 {object} util.APIResponse "Staff not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /staff/{id} [delete]
func DeleteStaff(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	if err := deleteStaffWithSessions(db, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Staff not found", Err: err})
			return
		}
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to delete staff account", Err: err})
		return
	}

	_ = util.InvalidateStaffSessions(id)
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Staff deleted"})
}
