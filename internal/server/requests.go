package server

// Request types for WebSocket commands with validation tags.
// These types define the expected input for each command and use
// go-playground/validator struct tags for automatic validation.

// --- Parameter edits ---

// ParamsUpdateRequest is the request body for params/update. Only the
// fields present in the request are applied. All values are normalized
// controls in [0,1] except the sidechain filter frequency, which is
// expressed in hertz.
type ParamsUpdateRequest struct {
	SidechainHPF  *float32 `json:"sidechain_hpf" validate:"omitempty,gte=20,lte=2000"`
	InputLevel    *float32 `json:"input_level" validate:"omitempty,gte=0,lte=1"`
	Sensitivity   *float32 `json:"sensitivity" validate:"omitempty,gte=0,lte=1"`
	Ratio         *float32 `json:"ratio" validate:"omitempty,gte=0,lte=1"`
	Attack        *float32 `json:"attack" validate:"omitempty,gte=0,lte=1"`
	Release       *float32 `json:"release" validate:"omitempty,gte=0,lte=1"`
	Makeup        *float32 `json:"makeup" validate:"omitempty,gte=0,lte=1"`
	Mix           *float32 `json:"mix" validate:"omitempty,gte=0,lte=1"`
	OutputLevel   *float32 `json:"output_level" validate:"omitempty,gte=0,lte=1"`
	Sidechain     *float32 `json:"sidechain" validate:"omitempty,gte=0,lte=1"`
	FullBandwidth *float32 `json:"full_bandwidth" validate:"omitempty,gte=0,lte=1"`
}

// --- Device selection ---

// DevicesUpdateRequest is the request body for devices/update. A
// selection is either "Default" or a substring of a device name.
type DevicesUpdateRequest struct {
	InputDevice  *string `json:"input_device" validate:"omitempty,max=256"`
	OutputDevice *string `json:"output_device" validate:"omitempty,max=256"`
}
