package data

// Amounts used by the user journey.
const (
	BillPayAmount  = "50"
	TransferAmount = "100"
)

// UI routes, relative to the configured base URL.
const (
	PathIndex         = "/parabank/index.htm"
	PathRegister      = "/parabank/register.htm"
	PathOverview      = "/parabank/overview.htm"
	PathOpenAccount   = "/parabank/openaccount.htm"
	PathTransfer      = "/parabank/transfer.htm"
	PathBillPay       = "/parabank/billpay.htm"
	PathFindTrans     = "/parabank/findtrans.htm"
	PathUpdateProfile = "/parabank/updateprofile.htm"
	PathRequestLoan   = "/parabank/requestloan.htm"
	PathLogout        = "/parabank/logout.htm"
	PathLookup        = "/parabank/lookup.htm"
)

// PathAPIAccounts is the REST prefix for account resources.
const PathAPIAccounts = "/parabank/services/bank/accounts"

// Account type values accepted by the open account form.
const (
	AccountTypeChecking = "0"
	AccountTypeSavings  = "1"
)

// DefaultPayee is the bill pay destination used by the journey.
var DefaultPayee = BillPayeeInfo{
	Name:          "Utility Company",
	Street:        "456 Service Blvd",
	City:          "PayCity",
	State:         "NY",
	ZipCode:       "10001",
	PhoneNumber:   "5551234567",
	AccountNumber: "54321",
	Amount:        BillPayAmount,
}
