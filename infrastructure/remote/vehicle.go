package remote

import (
	"context"
	"fmt"
	"net/http"

	"dispatcher/models"
)

type vehicleEntryRequest struct {
	VehicleNumber string `json:"Vehicle_Number"`
	DriverName    string `json:"Driver_Name"`
	DriverPhone   string `json:"Driver_Phone"`
	Transporter   string `json:"Transporter"`
	Purpose       string `json:"Purpose"`
	SONumber      string `json:"SO_Number"`
	Remarks       string `json:"Remarks"`
}

// SubmitVehicleEntry records a vehicle at the gate.
func (c *Client) SubmitVehicleEntry(ctx context.Context, draft models.VehicleEntryDraft) error {
	req := vehicleEntryRequest{
		VehicleNumber: draft.VehicleNumber,
		DriverName:    draft.DriverName,
		DriverPhone:   draft.DriverPhone,
		Transporter:   draft.Transporter,
		Purpose:       draft.Purpose,
		SONumber:      draft.SaleOrderNumber,
		Remarks:       draft.Remarks,
	}
	if _, err := c.do(ctx, http.MethodPost, "/vehicle-entries", req, nil); err != nil {
		return fmt.Errorf("submit vehicle entry %s: %w", draft.VehicleNumber, err)
	}
	return nil
}
