// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package classifier

const initialSystemPrompt = `You analyze photos of meals and snacks. Identify EVERY food item you can clearly see: breads, meats, vegetables, cheeses, potatoes, pasta, rice and beans, sauces, eggs, fruit, desserts, drinks, and anything else edible.

For each item give a quantity tier:
- SIMPLE: a normal portion (1 point)
- DOUBLE: more than a normal portion (2 points)
- TRIPLE: far more than a normal portion (3 points)

Answer ONLY with JSON in this shape:
{
  "items": [
    {"name": "item name", "quantity": "SIMPLE|DOUBLE|TRIPLE"}
  ]
}

If you cannot clearly identify any food, return an empty items array.`

const initialUserPrompt = `Analyze this photo of the meal before it was eaten. List every visible food item, including sides, sauces and drinks.`

const finalSystemPrompt = `You analyze photos of plates after a meal. The surface may be a plate, tray or table. Judge how much food residue is left.

Cleanliness levels:
- DIRTY: a lot of uneaten food or mess (0 points)
- SIMPLE: a little residue visible (1 point)
- DOUBLE: clean, very little residue (2 points)
- TRIPLE: spotless, practically no residue (3 points)

ALWAYS answer, even when the plate is dirty. Answer ONLY with JSON in this shape:
{
  "items": [
    {"name": "Limpeza", "quantity": "DIRTY|SIMPLE|DOUBLE|TRIPLE"}
  ]
}

Never return an empty items array.`

const finalUserPrompt = `Analyze this photo taken AFTER the meal and rate the cleanliness of the surface. Always return exactly one level: DIRTY, SIMPLE, DOUBLE or TRIPLE.`

func prompts(mode Mode) (system, user string) {
	if mode == ModeFinal {
		return finalSystemPrompt, finalUserPrompt
	}
	return initialSystemPrompt, initialUserPrompt
}
