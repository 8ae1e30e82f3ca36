// Package xlsx is an engine driver that works on .xlsx workbooks through
// github.com/xuri/excelize/v2.
//
// Each instance is a lightweight in-process application object that can hold
// open workbooks. Cell values are read from their stored (cached) content;
// formulas are not recalculated.
//
// Numbers are exposed as Float, booleans as Bool, text as String and cell
// errors as value.ErrorCode. A single-cell range yields a scalar, a larger
// range a 2-D array with lower bound 1 in both dimensions.
package xlsx
