package extraction

import "fmt"

// PagePrompt returns the fixed extraction prompt targeting one page of the
// attached PDF. The whole file is attached on every call; the prompt narrows
// the model to a single page.
func PagePrompt(pageNumber int) string {
	return fmt.Sprintf(`You are reading a proof-of-delivery (POD) receipt.
Extract structured data from page %d of the attached PDF only. Ignore every other page.

Fields:
containerNumbers: shipping container numbers printed on the page, e.g. "ABCD1234567".
containerSizes: the size of each container, e.g. "20ft" or "40ft".
fullEmptyStatuses: whether each container is FULL or EMPTY.
The three arrays above are parallel and must have the same length: index i of
every array describes the same physical container. Put null at a position
where that attribute exists but cannot be read.
pageDate: the delivery or receipt date printed on the page.
instructionNumber: the transport instruction or booking reference.
vehicleNumber: the truck or trailer registration.
collectedFrom: the collection location.
deliveredTo: the delivery location.
unsureFields: names of fields you could not read confidently; empty when everything is confident.

Set scalar fields to null when the value is not on the page. Respond with a
single JSON object matching the schema. Do not invent values.`, pageNumber)
}
