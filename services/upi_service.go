package services

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/yeremiapane/mess-management/models"
	"gorm.io/gorm"
)

// UpiLink adalah hasil pembuatan deep link pembayaran UPI.
type UpiLink struct {
	Link           string `json:"upi_link"`
	TransactionRef string `json:"transaction_ref"`
	Amount         string `json:"amount"`
	UpiID          string `json:"upi_id"`
	PayeeName      string `json:"payee_name"`
}

// BuildUpiLink membangun deep link upi://pay untuk satu bill.
// Format mengikuti spesifikasi UPI: pa, pn, am, cu, tn, tr.
func BuildUpiLink(db *gorm.DB, bill *models.Bill, student *models.Student) UpiLink {
	defaultID := os.Getenv("UPI_ID")
	if defaultID == "" {
		defaultID = "mess@oksbi"
	}
	defaultName := os.Getenv("UPI_NAME")
	if defaultName == "" {
		defaultName = "Mess Management"
	}

	upiID, upiName := EffectiveUpi(db, bill.MessID, defaultID, defaultName)

	// Referensi transaksi unik, scoped ke mess
	txnRef := fmt.Sprintf("M%d-BILL%d-STU%d-%s",
		bill.MessID, bill.ID, student.ID, time.Now().UTC().Format("20060102150405"))

	amount := fmt.Sprintf("%.2f", bill.Amount)
	note := fmt.Sprintf("Mess Bill #%d - %s", bill.ID, student.RollNo)

	link := fmt.Sprintf("upi://pay?pa=%s&pn=%s&am=%s&cu=INR&tn=%s&tr=%s",
		upiID, url.QueryEscape(upiName), amount, url.QueryEscape(note), txnRef)

	return UpiLink{
		Link:           link,
		TransactionRef: txnRef,
		Amount:         amount,
		UpiID:          upiID,
		PayeeName:      upiName,
	}
}
