package api

import "github.com/shaharia-lab/trainingdesk/internal/service"

func applyRequestToService(actor int64, req applyRequest) service.ApplyRequest {
	return service.ApplyRequest{
		ActorID:   actor,
		UserID:    req.UserID,
		AreaID:    req.AreaID,
		RatingIDs: req.RatingIDs,
	}
}
