package pose

// NumKeypoints is the number of anatomical landmarks in the canonical
// COCO-style skeleton every detector must report.
const NumKeypoints = 17

// KeypointNames lists the canonical landmark names in detector output order.
var KeypointNames = [NumKeypoints]string{
	"nose", "left_eye", "right_eye", "left_ear", "right_ear",
	"left_shoulder", "right_shoulder", "left_elbow", "right_elbow",
	"left_wrist", "right_wrist", "left_hip", "right_hip",
	"left_knee", "right_knee", "left_ankle", "right_ankle",
}

// Keypoint is a named landmark in frame pixel space.
type Keypoint struct {
	Name       string  `json:"name"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
}

// Frame holds the keypoints detected in a single video frame.
type Frame struct {
	Index     int        `json:"frame"`
	Keypoints []Keypoint `json:"keypoints"`
}

// Sequence is an ordered, frame-indexed keypoint sequence.
type Sequence []Frame

// Truncate returns a copy of the first n frames of the sequence. The full
// sequence is returned when it is shorter than n.
func (s Sequence) Truncate(n int) Sequence {
	if n < 0 {
		n = 0
	}
	if len(s) <= n {
		n = len(s)
	}
	out := make(Sequence, n)
	copy(out, s[:n])
	return out
}
