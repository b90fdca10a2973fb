// Package googlesheets stores worksheets in a Google Sheets spreadsheet using
// the Sheets v4 API and a service-account credentials file.
package googlesheets
