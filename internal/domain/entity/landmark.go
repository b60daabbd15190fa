package entity

// Pose landmark names, following the MediaPipe pose topology.
const (
	Nose          = "nose"
	LeftShoulder  = "left_shoulder"
	RightShoulder = "right_shoulder"
	LeftElbow     = "left_elbow"
	RightElbow    = "right_elbow"
	LeftWrist     = "left_wrist"
	RightWrist    = "right_wrist"
	LeftHip       = "left_hip"
	RightHip      = "right_hip"
	LeftKnee      = "left_knee"
	RightKnee     = "right_knee"
	LeftAnkle     = "left_ankle"
	RightAnkle    = "right_ankle"
)

// Landmark is a detected keypoint in normalized image coordinates.
type Landmark struct {
	X          float64 `json:"x" msgpack:"x"`
	Y          float64 `json:"y" msgpack:"y"`
	Z          float64 `json:"z" msgpack:"z"`
	Visibility float64 `json:"visibility" msgpack:"visibility"`
}

// LandmarkSet is the pose detected on one frame. A nil *LandmarkSet means nothing was detected.
type LandmarkSet struct {
	Points map[string]Landmark
}

// NewLandmarkSet returns an empty set.
func NewLandmarkSet() *LandmarkSet {
	return &LandmarkSet{Points: make(map[string]Landmark)}
}

// Get returns the named landmark if present with at least minVisibility.
func (s *LandmarkSet) Get(name string, minVisibility float64) (Landmark, bool) {
	if s == nil {
		return Landmark{}, false
	}
	lm, ok := s.Points[name]
	if !ok || lm.Visibility < minVisibility {
		return Landmark{}, false
	}
	return lm, true
}

// Len reports the number of landmarks in the set.
func (s *LandmarkSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Points)
}

// SkeletonConnections lists the landmark pairs drawn as bones on annotated frames.
var SkeletonConnections = [][2]string{
	{LeftShoulder, RightShoulder},
	{LeftShoulder, LeftElbow},
	{LeftElbow, LeftWrist},
	{RightShoulder, RightElbow},
	{RightElbow, RightWrist},
	{LeftShoulder, LeftHip},
	{RightShoulder, RightHip},
	{LeftHip, RightHip},
	{LeftHip, LeftKnee},
	{LeftKnee, LeftAnkle},
	{RightHip, RightKnee},
	{RightKnee, RightAnkle},
}
