package spreadsheet

import "errors"

// ErrUnreadableWorkbook is returned when the bytes are not an xlsx file.
var ErrUnreadableWorkbook = errors.New("unreadable workbook")
