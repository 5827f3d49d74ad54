package parse

const combinedResponse = `**MEDICATIONS:**
1. **Brand name:** Tylenol Extra Strength (Acetaminophen)
   Type of medication: Tablet
   Side effects: Nausea, rash
   liver damage at high doses [2]
2. **Brand name:** Advil (Ibuprofen)
   Type of medication: Capsule
   Side effects: Stomach upset [1][4]
3. **Brand name:** Robitussin DM
   Type of medication: Liquid
   Side effects: Drowsiness

## MANAGEMENT:
DO:
1. Rest as much as possible [1]
2. Drink plenty of fluids
3. Use a humidifier

DON’T:
1. Smoke or be around smoke
2. Drink alcohol
3. Skip meals
`

const medicationOnlyResponse = `1. Brand name: Sudafed (Pseudoephedrine)
   Form: Tablet
   Side effects: Insomnia
2. Brand name: Mucinex
   Form: Tablet
   Side effects: Headache
3. Brand name: Vicks VapoRub
   Form: Ointment
   Side effects: Skin irritation
4. Brand name: Zicam
   Form: Gel
   Side effects: Loss of smell
`
