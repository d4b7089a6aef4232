package bed

import (
	"strconv"
	"time"
)

// Bed statuses.
const (
	StatusAvailable   = "available"
	StatusOccupied    = "occupied"
	StatusMaintenance = "maintenance"
)

// Zones. Beds 1-28 belong to the main ward, 29-38 are overflow stretchers.
const (
	ZoneMain      = "main"
	ZoneTemporary = "temporary"
)

// DeliveryStatus is the clinical progress note attached to an open episode.
// The well-known values are listed below; staff may still enter free text.
type DeliveryStatus string

const (
	DeliveryPendingExam DeliveryStatus = "รอตรวจ"         // pending exam (default on admit)
	DeliveryInTreatment DeliveryStatus = "กำลังรักษา"      // treatment in progress
	DeliveryWaitResult  DeliveryStatus = "รอผลตรวจ"        // waiting for lab results
	DeliveryAdmitWard   DeliveryStatus = "รอ Admit"        // waiting for ward admission
	DeliveryDischarged  DeliveryStatus = "จำหน่ายแล้ว"     // discharged
	DeliveryGoneHome    DeliveryStatus = "กลับบ้านเรียบร้อย" // left the hospital
)

// TransferredSuffix is appended to the delivery status of a history row that
// is closed because the patient moved to another bed.
const TransferredSuffix = " (ย้ายเตียง)"

// History row actions.
const (
	HistoryAdmit      = "admit"
	HistoryTransferIn = "transfer_in"
)

const (
	MinESILevel = 1
	MaxESILevel = 5

	FirstBedNumber    = 1
	LastMainBedNumber = 28
	LastBedNumber     = 38
)

// Bed maps to the beds table.
type Bed struct {
	ID         int64      `db:"id" json:"id"`
	BedNumber  string     `db:"bed_number" json:"bedNumber"`
	Zone       string     `db:"zone" json:"zone"`
	Status     string     `db:"status" json:"status"`
	PatientID  *int64     `db:"patient_id" json:"patientId,omitempty"`
	ESILevel   *int       `db:"esi_level" json:"esiLevel,omitempty"`
	AdmittedAt *time.Time `db:"admitted_at" json:"admittedAt,omitempty"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updatedAt"`
}

// Occupied reports whether the bed currently holds a patient.
func (b *Bed) Occupied() bool {
	return b.Status == StatusOccupied && b.PatientID != nil
}

// Occupant is the patient summary embedded in bed listings.
type Occupant struct {
	ID        int64  `json:"id"`
	HN        string `json:"hn"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// View is a bed joined with its occupant and open episode, the shape the
// dashboard and tablet pages consume.
type View struct {
	Bed
	Label          string    `json:"label"`
	DeliveryStatus *string   `json:"deliveryStatus"`
	OtherSymptoms  *string   `json:"otherSymptoms"`
	Patient        *Occupant `json:"patient"`
}

// Stats is the aggregate block returned alongside the bed listing.
type Stats struct {
	Available  int `json:"available"`
	Occupied   int `json:"occupied"`
	QueueCount int `json:"queueCount"`
}

// HistoryEntry maps to the patient_bed_history table. A row with a null
// DischargeTime is the open episode for its bed.
type HistoryEntry struct {
	ID             int64      `db:"id" json:"id"`
	PatientID      int64      `db:"patient_id" json:"patientId"`
	BedID          int64      `db:"bed_id" json:"bedId"`
	Action         string     `db:"action" json:"action"`
	ESILevel       *int       `db:"esi_level" json:"esiLevel,omitempty"`
	DeliveryStatus *string    `db:"delivery_status" json:"deliveryStatus,omitempty"`
	OtherSymptoms  *string    `db:"other_symptoms" json:"otherSymptoms,omitempty"`
	AdmissionTime  time.Time  `db:"admission_time" json:"admissionTime"`
	DischargeTime  *time.Time `db:"discharge_time" json:"dischargeTime,omitempty"`
	PerformedAt    time.Time  `db:"performed_at" json:"performedAt"`
}

// Open reports whether the episode has not been closed yet.
func (h *HistoryEntry) Open() bool {
	return h.DischargeTime == nil
}

// ValidESI reports whether level is within the Emergency Severity Index
// range (1 most severe, 5 least).
func ValidESI(level int) bool {
	return level >= MinESILevel && level <= MaxESILevel
}

// ZoneFor derives the zone from a numeric bed number string. Unparseable
// numbers fall into the temporary zone.
func ZoneFor(bedNumber string) string {
	n, err := strconv.Atoi(bedNumber)
	if err != nil || n > LastMainBedNumber {
		return ZoneTemporary
	}
	return ZoneMain
}

// bedLabels maps bed numbers to the signage labels painted on the ward.
// Numbers without an entry display as-is.
var bedLabels = map[string]string{
	"1": "R1", "2": "R2", "3": "R3",
	"4": "N1", "5": "N2",
	"6": "NT1", "7": "NT2", "8": "NT3", "9": "NT4", "10": "NT5",
	"11": "NT6", "12": "NT7", "13": "NT8", "14": "NT9", "15": "NT10", "16": "NT11",
	"17": "T12", "18": "T13", "19": "T14", "20": "T15", "21": "T16",
	"22": "T17", "23": "T18", "24": "T19",
	"25": "20", "26": "21",
	"27": "จุดคัดกรอง", "28": "VVIP",
}

// LabelFor returns the display label for a bed number.
func LabelFor(bedNumber string) string {
	if l, ok := bedLabels[bedNumber]; ok {
		return l
	}
	return bedNumber
}
