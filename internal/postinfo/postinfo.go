package postinfo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jkovarik/dispecink-backend/internal/esb"
	"github.com/jkovarik/dispecink-backend/pkg/errors"
)

const detailPath = "/postinfoservice/api/v1/postdetail"

// Office type codes of interest in the upstream directory.
const (
	postOfficeDepo = "9"
	postOfficeDspu = "15"
)

// PostDetail is one directory entry as delivered by the bus.
type PostDetail struct {
	PostID             string  `json:"postId"`
	PostCode           string  `json:"postCode"`
	Name               string  `json:"name"`
	Region             string  `json:"region"`
	Region1            string  `json:"region1"`
	SpuName            *string `json:"spuName"`
	PostOfficeType     string  `json:"postOfficeType"`
	PostOfficeTypeName string  `json:"postOfficeTypeName"`
	Email              *string `json:"email"`
}

type detailEnvelope struct {
	Attributes PostDetail `json:"attributes"`
}

type busClient interface {
	Get(ctx context.Context, path string, headers map[string]string) (*esb.Response, error)
}

// Service reads the post office directory from the bus.
type Service struct {
	bus busClient
}

func NewService(bus busClient) *Service {
	return &Service{bus: bus}
}

// GetDetail fetches the directory and keeps only depots and dispatch
// center offices.
func (s *Service) GetDetail(ctx context.Context) ([]PostDetail, error) {
	res, err := s.bus.Get(ctx, detailPath, nil)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, errors.New(errors.CodeDependency, fmt.Sprintf("post detail returned status %d", res.StatusCode))
	}

	var envelopes []detailEnvelope
	if err := json.Unmarshal(res.Body, &envelopes); err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "decoding post detail response")
	}

	details := make([]PostDetail, 0, len(envelopes))
	for _, env := range envelopes {
		switch env.Attributes.PostOfficeType {
		case postOfficeDepo, postOfficeDspu:
			details = append(details, env.Attributes)
		}
	}
	return details, nil
}
