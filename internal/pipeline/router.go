package pipeline

import (
	"strings"

	"github.com/example/whatsapp-ai-responder/internal/config"
	"github.com/example/whatsapp-ai-responder/internal/models"
)

// Decision is the single processing path chosen for a message.
type Decision struct {
	Route models.Route
	// Attachment is the media the route operates on, if any.
	Attachment models.Attachment
}

// Router picks the processing path from attachment modalities.
type Router struct {
	imagePolicy string
}

// NewRouter returns a router applying the given image policy. Anything other
// than config.ImagePolicyDescribe ignores images.
func NewRouter(imagePolicy string) Router {
	policy := strings.ToLower(strings.TrimSpace(imagePolicy))
	if policy != config.ImagePolicyDescribe {
		policy = config.ImagePolicyIgnore
	}
	return Router{imagePolicy: policy}
}

// DescribesImages reports whether the vision path is enabled.
func (r Router) DescribesImages() bool {
	return r.imagePolicy == config.ImagePolicyDescribe
}

// Route selects audio over image over text. While images are ignored, any
// image attachment suppresses the reply regardless of other content. Video
// and unknown attachments take the text path.
func (r Router) Route(msg *models.InboundMessage) Decision {
	if img, ok := msg.FirstOf(models.ModalityImage); ok && !r.DescribesImages() {
		return Decision{Route: models.RouteSuppressed, Attachment: img}
	}
	if audio, ok := msg.FirstOf(models.ModalityAudio); ok {
		return Decision{Route: models.RouteAudio, Attachment: audio}
	}
	if img, ok := msg.FirstOf(models.ModalityImage); ok {
		return Decision{Route: models.RouteImage, Attachment: img}
	}
	return Decision{Route: models.RouteText}
}
