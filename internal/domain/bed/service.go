package bed

import (
	"context"
	"errors"
	"fmt"
)

// Action names accepted by Apply.
const (
	ActionScanBarcode  = "scan_barcode"
	ActionUpdateESI    = "update_esi"
	ActionUpdateStatus = "update_status"
	ActionDischarge    = "discharge"
	ActionTransfer     = "transfer"
)

// ActionRequest is the wire body of POST /bed-actions.
type ActionRequest struct {
	Action          string  `json:"action"`
	BedNumber       string  `json:"bedNumber"`
	HN              string  `json:"hn,omitempty"`
	ESILevel        *int    `json:"esiLevel,omitempty"`
	DeliveryStatus  *string `json:"deliveryStatus,omitempty"`
	OtherSymptoms   *string `json:"otherSymptoms,omitempty"`
	TargetBedNumber string  `json:"targetBedNumber,omitempty"`
}

// TxFunc runs fn inside a database transaction carried by the context it
// passes to fn. Production wiring binds it to db.WithTx over the pool; tests
// substitute a passthrough.
type TxFunc func(ctx context.Context, fn func(ctx context.Context) error) error

// Service is the bed transaction engine: the sole mutator of bed occupancy
// and episode history.
type Service struct {
	beds     Repository
	history  HistoryRepository
	patients PatientResolver
	inTx     TxFunc
}

func NewService(beds Repository, history HistoryRepository, patients PatientResolver, inTx TxFunc) *Service {
	if inTx == nil {
		inTx = func(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
	}
	return &Service{beds: beds, history: history, patients: patients, inTx: inTx}
}

// Apply validates and executes one named action against a bed and returns the
// localized confirmation message shown to the staff member.
func (s *Service) Apply(ctx context.Context, req *ActionRequest) (string, error) {
	if req.Action == "" || req.BedNumber == "" {
		return "", fmt.Errorf("%w: action and bedNumber required", ErrMissingField)
	}

	b, err := s.beds.GetByNumber(ctx, req.BedNumber)
	if err != nil {
		return "", err
	}

	switch req.Action {
	case ActionScanBarcode:
		return s.admit(ctx, b, req)
	case ActionUpdateESI:
		return s.updateESI(ctx, b, req)
	case ActionUpdateStatus:
		return s.updateStatus(ctx, b, req)
	case ActionDischarge:
		return s.discharge(ctx, b)
	case ActionTransfer:
		return s.transfer(ctx, b, req)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownAction, req.Action)
	}
}

func (s *Service) admit(ctx context.Context, b *Bed, req *ActionRequest) (string, error) {
	if req.HN == "" {
		return "", fmt.Errorf("%w: hn is required", ErrMissingField)
	}
	patientID, err := s.patients.ResolveHN(ctx, req.HN)
	if err != nil {
		return "", err
	}
	if b.Status == StatusOccupied {
		return "", ErrBedOccupied
	}

	pending := string(DeliveryPendingExam)
	err = s.inTx(ctx, func(ctx context.Context) error {
		ok, err := s.beds.Occupy(ctx, b.BedNumber, patientID, nil)
		if err != nil {
			return err
		}
		if !ok {
			// Lost the race: someone occupied the bed after our read.
			return ErrBedOccupied
		}
		return s.history.Insert(ctx, &HistoryEntry{
			PatientID:      patientID,
			BedID:          b.ID,
			Action:         HistoryAdmit,
			DeliveryStatus: &pending,
		})
	})
	if err != nil {
		return "", err
	}
	return "รับผู้ป่วยเข้าเตียงสำเร็จ", nil
}

func (s *Service) updateESI(ctx context.Context, b *Bed, req *ActionRequest) (string, error) {
	if req.ESILevel == nil || !ValidESI(*req.ESILevel) {
		return "", ErrInvalidESI
	}
	level := *req.ESILevel

	if err := s.beds.SetESI(ctx, b.BedNumber, level); err != nil {
		return "", err
	}
	if b.PatientID != nil {
		if err := s.history.UpdateOpenESI(ctx, *b.PatientID, b.ID, level); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("อัปเดต ESI Level %d สำเร็จ", level), nil
}

func (s *Service) updateStatus(ctx context.Context, b *Bed, req *ActionRequest) (string, error) {
	if b.PatientID == nil {
		return "", ErrBedNotOccupied
	}
	// Out-of-range triage levels are rejected on every entry point.
	if req.ESILevel != nil && !ValidESI(*req.ESILevel) {
		return "", ErrInvalidESI
	}

	deliveryStatus := string(DeliveryPendingExam)
	if req.DeliveryStatus != nil && *req.DeliveryStatus != "" {
		deliveryStatus = *req.DeliveryStatus
	}
	if err := s.history.UpdateOpenStatus(ctx, *b.PatientID, b.ID, deliveryStatus, req.OtherSymptoms); err != nil {
		return "", err
	}
	if req.ESILevel != nil {
		if err := s.beds.SetESI(ctx, b.BedNumber, *req.ESILevel); err != nil {
			return "", err
		}
		if err := s.history.UpdateOpenESI(ctx, *b.PatientID, b.ID, *req.ESILevel); err != nil {
			return "", err
		}
	}
	return "บันทึกสำเร็จ", nil
}

func (s *Service) discharge(ctx context.Context, b *Bed) (string, error) {
	if !b.Occupied() {
		return "", ErrBedNotOccupied
	}

	err := s.inTx(ctx, func(ctx context.Context) error {
		if err := s.history.CloseOpen(ctx, *b.PatientID, b.ID, string(DeliveryDischarged)); err != nil {
			return err
		}
		ok, err := s.beds.Clear(ctx, b.BedNumber)
		if err != nil {
			return err
		}
		if !ok {
			return ErrBedNotOccupied
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return "จำหน่ายผู้ป่วยสำเร็จ", nil
}

func (s *Service) transfer(ctx context.Context, b *Bed, req *ActionRequest) (string, error) {
	if req.TargetBedNumber == "" {
		return "", fmt.Errorf("%w: targetBedNumber required", ErrMissingField)
	}
	if !b.Occupied() {
		return "", ErrBedNotOccupied
	}
	if req.TargetBedNumber == b.BedNumber {
		return "", ErrSameBed
	}

	target, err := s.beds.GetByNumber(ctx, req.TargetBedNumber)
	if err != nil {
		if errors.Is(err, ErrBedNotFound) {
			return "", ErrTargetNotFound
		}
		return "", err
	}
	if target.Status == StatusOccupied {
		return "", ErrTargetOccupied
	}

	patientID := *b.PatientID
	open, err := s.history.GetOpen(ctx, patientID, b.ID)
	if err != nil {
		return "", err
	}

	// Carry the episode data from the source row into the new one; the open
	// row may be missing if history was purged, defaults apply then.
	pending := string(DeliveryPendingExam)
	carried := &HistoryEntry{
		PatientID:      patientID,
		BedID:          target.ID,
		Action:         HistoryTransferIn,
		DeliveryStatus: &pending,
	}
	if open != nil {
		if open.DeliveryStatus != nil && *open.DeliveryStatus != "" {
			carried.DeliveryStatus = open.DeliveryStatus
		}
		carried.OtherSymptoms = open.OtherSymptoms
		carried.ESILevel = open.ESILevel
	}

	err = s.inTx(ctx, func(ctx context.Context) error {
		if err := s.history.CloseOpenTransferred(ctx, patientID, b.ID); err != nil {
			return err
		}
		ok, err := s.beds.Clear(ctx, b.BedNumber)
		if err != nil {
			return err
		}
		if !ok {
			return ErrBedNotOccupied
		}
		ok, err = s.beds.Occupy(ctx, target.BedNumber, patientID, b.ESILevel)
		if err != nil {
			return err
		}
		if !ok {
			// Target taken mid-flight; rollback restores the source bed.
			return ErrTargetOccupied
		}
		return s.history.Insert(ctx, carried)
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ย้ายเตียงไป %s สำเร็จ", req.TargetBedNumber), nil
}

// -- Read side --

func (s *Service) ListBeds(ctx context.Context) ([]*View, *Stats, error) {
	views, err := s.beds.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	stats, err := s.beds.Stats(ctx)
	if err != nil {
		return nil, nil, err
	}
	return views, stats, nil
}

func (s *Service) GetBed(ctx context.Context, bedNumber string) (*Bed, error) {
	return s.beds.GetByNumber(ctx, bedNumber)
}

func (s *Service) BedHistory(ctx context.Context, bedNumber string, limit, offset int) ([]*HistoryEntry, int, error) {
	b, err := s.beds.GetByNumber(ctx, bedNumber)
	if err != nil {
		return nil, 0, err
	}
	return s.history.ListByBed(ctx, b.ID, limit, offset)
}
