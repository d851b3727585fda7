package handlers

import "campusdrop/internal/domain"

func requestToDTO(r domain.Request, eta int) requestDTO {
	return requestDTO{
		ID:                 r.ID,
		RequesterID:        r.RequesterID,
		DeliveryPersonID:   r.DeliveryPersonID,
		SelectedBidID:      r.SelectedBidID,
		Pickup:             r.Pickup,
		Dropoff:            r.Dropoff,
		PackageDetails:     r.PackageDetails,
		PreferredTime:      r.PreferredTime,
		Status:             r.Status,
		FareRecommendation: r.FareRecommendation,
		FinalFare:          r.FinalFare,
		ETAMinutes:         eta,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

func bidToDTO(b domain.Bid) bidDTO {
	return bidDTO{
		ID:               b.ID,
		RequestID:        b.RequestID,
		DeliveryPersonID: b.DeliveryPersonID,
		Amount:           b.Amount,
		Status:           b.Status,
		CreatedAt:        b.CreatedAt,
	}
}

func bidsToDTO(bs []domain.Bid) []bidDTO {
	out := make([]bidDTO, 0, len(bs))
	for _, b := range bs {
		out = append(out, bidToDTO(b))
	}
	return out
}

func paymentToDTO(p domain.Payment) paymentDTO {
	return paymentDTO{
		ID:        p.ID,
		RequestID: p.RequestID,
		Amount:    p.Amount,
		Method:    p.Method,
		Status:    p.Status,
		CreatedAt: p.CreatedAt,
	}
}

func reviewToDTO(r domain.Review) reviewDTO {
	return reviewDTO{
		ID:         r.ID,
		RequestID:  r.RequestID,
		ReviewerID: r.ReviewerID,
		RevieweeID: r.RevieweeID,
		Rating:     r.Rating,
		Comment:    r.Comment,
		CreatedAt:  r.CreatedAt,
	}
}

func reviewsToDTO(rs []domain.Review) []reviewDTO {
	out := make([]reviewDTO, 0, len(rs))
	for _, r := range rs {
		out = append(out, reviewToDTO(r))
	}
	return out
}

func notificationsToDTO(ns []domain.Notification) []notificationDTO {
	out := make([]notificationDTO, 0, len(ns))
	for _, n := range ns {
		out = append(out, notificationDTO{
			ID:        n.ID,
			SenderID:  n.SenderID,
			Type:      n.Type,
			RequestID: n.RequestID,
			Message:   n.Message,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		})
	}
	return out
}

func userToDTO(u domain.User) userDTO {
	return userDTO{
		ID:                       u.ID,
		FullName:                 u.FullName,
		Role:                     u.Role,
		IsDeliveryPersonActive:   u.IsDeliveryPersonActive,
		IsBlocked:                u.IsBlocked,
		AvgRating:                u.AvgRating,
		TotalDeliveriesCompleted: u.TotalDeliveriesCompleted,
		CreatedAt:                u.CreatedAt,
	}
}

func statsToDTO(s domain.Stats) statsDTO {
	var out statsDTO
	out.Users.Total = s.Users.Total
	out.Users.Requesters = s.Users.Requesters
	out.Users.DeliveryPersons = s.Users.DeliveryPersons
	out.Requests.Total = s.Requests.Total
	out.Requests.Pending = s.Requests.Pending
	out.Requests.Active = s.Requests.Active
	out.Requests.Delivered = s.Requests.Delivered
	out.Requests.Canceled = s.Requests.Canceled
	out.TopDeliveryPersons = make([]topDeliveryPersonDTO, 0, len(s.TopDeliveryPersons))
	for _, dp := range s.TopDeliveryPersons {
		out.TopDeliveryPersons = append(out.TopDeliveryPersons, topDeliveryPersonDTO{
			ID:                       dp.ID,
			FullName:                 dp.FullName,
			TotalDeliveriesCompleted: dp.TotalDeliveriesCompleted,
			AvgRating:                dp.AvgRating,
		})
	}
	return out
}
