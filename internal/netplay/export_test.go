package netplay

var NewMessageScanner = newMessageScanner
