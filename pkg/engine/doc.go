// Package engine describes the capability a spreadsheet engine driver has to
// offer: launching an instance, opening a document in it and navigating the
// document's object model through named properties and methods.
//
// The object model mirrors the classic spreadsheet automation surface:
//
//	instance                 Visible, DisplayAlerts, Workbooks, Quit
//	  document               Worksheets, Close, Save, Name
//	    Worksheets           Item(name), Count
//	      sheet              Range(address), Name
//	        range            Value (get/set), Address
//
// Drivers live in sub-packages. xlsx works on .xlsx files directly; enginetest
// is an in-memory fake for tests.
package engine
