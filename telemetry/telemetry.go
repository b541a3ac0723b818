package telemetry

// Layout follows the NGP plugin's TelemetryData header. Every field is 4 bytes
// wide so the structs can be read with encoding/binary without padding.

type Stage struct {
	Index             int32
	Progress          float32
	RaceTime          float32 // seconds
	DriveLineLocation float32
	DistanceToEnd     float32
}

type Control struct {
	Steering          float32
	Throttle          float32
	Brake             float32
	Handbrake         float32
	Clutch            float32
	Gear              int32
	FootbrakePressure float32
	HandbrakePressure float32
}

type Motion struct {
	Surge float32
	Sway  float32
	Heave float32
	Roll  float32
	Pitch float32
	Yaw   float32
}

type Engine struct {
	RPM                        float32
	RadiatorCoolantTemperature float32
	EngineCoolantTemperature   float32
	EngineTemperature          float32 // kelvin
}

type TireSegment struct {
	Temperature float32
	Wear        float32
}

type Tire struct {
	Pressure           float32
	Temperature        float32
	CarcassTemperature float32
	TreadTemperature   float32
	CurrentSegment     uint32
	Segments           [8]TireSegment
}

type BrakeDisk struct {
	LayerTemperature float32
	Temperature      float32
	Wear             float32
}

type Wheel struct {
	BrakeDisk BrakeDisk
	Tire      Tire
}

type Damper struct {
	Damage         float32
	PistonVelocity float32
}

type Suspension struct {
	SpringDeflection     float32
	RollbarForce         float32
	SpringForce          float32
	DamperForce          float32
	StrutForce           float32
	HelperSpringIsActive int32
	Damper               Damper
	Wheel                Wheel
}

type Car struct {
	Index         int32
	Speed         float32
	PositionX     float32
	PositionY     float32
	PositionZ     float32
	Roll          float32
	Pitch         float32
	Yaw           float32
	Velocities    Motion
	Accelerations Motion
	Engine        Engine
	SuspensionLF  Suspension
	SuspensionRF  Suspension
	SuspensionLB  Suspension
	SuspensionRB  Suspension
}

type Telemetry struct {
	TotalSteps uint32
	Stage      Stage
	Control    Control
	Car        Car
}
