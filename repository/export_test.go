package repository

var WithSQLiteTimeFormatForTest = withSQLiteTimeFormat
