package api

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse: refresh is optional, some deployments issue access only.
type LoginResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

type RefreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// ProfileUpdate is sent as multipart/form-data to users/update/.
type ProfileUpdate struct {
	FirstName       string
	LastName        string
	Password        string
	ConfirmPassword string
	IsFirstLogin    bool
	Avatar          *Upload
}

type Upload struct {
	Name    string
	Content []byte
}

type ComplaintRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Status  string `json:"status,omitempty"`
}

type ParkingCardRequest struct {
	LicensePlate string `json:"license_plate"`
	VehicleType  string `json:"vehicle_type"`
	OwnerName    string `json:"owner_name"`
	RelativeName string `json:"relative_name"`
	Status       string `json:"status"`
	StartDate    string `json:"start_date"`
	ExpireDate   string `json:"expire_date"`
}

type errorBody struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}
