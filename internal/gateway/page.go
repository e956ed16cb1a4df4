package gateway

import "html/template"

// widgetOptions is the option object handed to the Razorpay constructor.
type widgetOptions struct {
	Key         string        `json:"key"`
	Amount      int64         `json:"amount"`
	Currency    string        `json:"currency"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	OrderID     string        `json:"order_id"`
	Prefill     widgetPrefill `json:"prefill"`
	Theme       widgetTheme   `json:"theme"`
}

type widgetPrefill struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type widgetTheme struct {
	Color string `json:"color"`
}

type pageData struct {
	ScriptURL string
	Nonce     string
	Options   widgetOptions
}

var checkoutPage = template.Must(template.New("checkout").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Options.Name}} payment</title>
<script src="{{.ScriptURL}}"></script>
</head>
<body>
<p id="status">Opening payment window...</p>
<script>
var options = {{.Options}};
var nonce = {{.Nonce}};
function report(path, body) {
  return fetch(path, {method: "POST", headers: {"Content-Type": "application/json", "X-Checkout-Nonce": nonce}, body: JSON.stringify(body || {})})
    .then(function () { document.getElementById("status").textContent = "You can close this tab and return to the terminal."; });
}
options.handler = function (response) {
  report("/callback", {
    razorpay_order_id: response.razorpay_order_id,
    razorpay_payment_id: response.razorpay_payment_id,
    razorpay_signature: response.razorpay_signature
  });
};
options.modal = {ondismiss: function () { report("/dismiss"); }};
new Razorpay(options).open();
</script>
</body>
</html>
`))
